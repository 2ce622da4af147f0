package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Gooit/Interpreter/internal/common/storage"
	"github.com/Gooit/Interpreter/internal/judge/cases"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "configs/judge_service.yaml"
	maxOperand        = 1000000
)

type options struct {
	root    string
	problem string
	count   int
	seed    uint64
	pack    string
	upload  bool
	config  string
}

func main() {
	var opts options
	flag.StringVar(&opts.root, "root", "data/cases", "Case root directory")
	flag.StringVar(&opts.problem, "problem", "1", "Problem id")
	flag.IntVar(&opts.count, "count", 1000, "Number of cases")
	flag.Uint64Var(&opts.seed, "seed", 0, "Random seed, 0 picks one from the clock")
	flag.StringVar(&opts.pack, "pack", "", "Directory to write <problem>.tar.zst into")
	flag.BoolVar(&opts.upload, "upload", false, "Upload the pack to the configured object storage")
	flag.StringVar(&opts.config, "config", defaultConfigPath, "Judge service config holding the minio section")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "casegen: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if err := cases.ValidateProblemID(opts.problem); err != nil {
		return err
	}
	if opts.count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	layout := cases.Layout{Root: opts.root}
	if err := generateSum(layout, opts.problem, opts.count, rand.New(rand.NewPCG(seed, seed>>1))); err != nil {
		return err
	}
	fmt.Printf("wrote %d cases to %s\n", opts.count, layout.ProblemDir(opts.problem))

	if opts.pack == "" && !opts.upload {
		return nil
	}
	packDir := opts.pack
	if packDir == "" {
		packDir = os.TempDir()
	}
	packPath, err := writePack(layout, opts.problem, packDir)
	if err != nil {
		return err
	}
	fmt.Printf("wrote pack %s\n", packPath)

	if opts.upload {
		cfg, err := loadMinIOConfig(opts.config)
		if err != nil {
			return err
		}
		key, err := uploadPack(ctx, cfg, opts.problem, packPath)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s/%s\n", cfg.Bucket, key)
	}
	return nil
}

// generateSum writes the a+b problem: each input holds two integers and the
// expected output is their sum.
func generateSum(layout cases.Layout, problemID string, count int, rng *rand.Rand) error {
	dir := layout.ProblemDir(problemID)
	for _, sub := range []string{"in", "out"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create case dir: %w", err)
		}
	}
	for i := 0; i < count; i++ {
		a := rng.IntN(2*maxOperand+1) - maxOperand
		b := rng.IntN(2*maxOperand+1) - maxOperand
		input := strconv.Itoa(a) + " " + strconv.Itoa(b)
		if err := os.WriteFile(layout.InputPath(problemID, i), []byte(input), 0o644); err != nil {
			return fmt.Errorf("write input %d: %w", i, err)
		}
		if err := os.WriteFile(layout.OutputPath(problemID, i), []byte(strconv.Itoa(a+b)+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output %d: %w", i, err)
		}
	}
	return nil
}

func writePack(layout cases.Layout, problemID, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create pack dir: %w", err)
	}
	path := filepath.Join(dir, problemID+cases.PackExt)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create pack: %w", err)
	}
	if err := cases.WritePack(f, layout.ProblemDir(problemID)); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pack: %w", err)
	}
	return path, nil
}

func loadMinIOConfig(path string) (storage.MinIOConfig, error) {
	var cfg struct {
		MinIO storage.MinIOConfig `yaml:"minio"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg.MinIO, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg.MinIO, fmt.Errorf("parse config file failed: %w", err)
	}
	if !cfg.MinIO.Enabled() {
		return cfg.MinIO, fmt.Errorf("minio endpoint is not configured in %s", path)
	}
	return cfg.MinIO, nil
}

func uploadPack(ctx context.Context, cfg storage.MinIOConfig, problemID, packPath string) (string, error) {
	objStorage, err := storage.NewMinIOStorage(cfg)
	if err != nil {
		return "", err
	}
	return putPack(ctx, objStorage, cfg.Bucket, cfg.Prefix, problemID, packPath)
}

func putPack(ctx context.Context, objStorage storage.ObjectStorage, bucket, prefix, problemID, packPath string) (string, error) {
	f, err := os.Open(packPath)
	if err != nil {
		return "", fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pack: %w", err)
	}
	key := prefix + problemID + cases.PackExt
	if err := objStorage.PutObject(ctx, bucket, key, f, info.Size(), "application/zstd"); err != nil {
		return "", fmt.Errorf("upload pack: %w", err)
	}
	return key, nil
}

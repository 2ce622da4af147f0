package cases

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gooit/Interpreter/internal/common/storage"
	appErr "github.com/Gooit/Interpreter/pkg/errors"

	"github.com/klauspost/compress/zstd"
)

func writeCase(t *testing.T, root, problem string, index int, in, out string) {
	t.Helper()
	for dir, content := range map[string]string{"in": in, "out": out} {
		if content == "" {
			continue
		}
		path := filepath.Join(root, problem, dir, fmt.Sprintf("%d.%s", index, dir))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write case: %v", err)
		}
	}
}

func TestLayoutList(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "1", 0, "1 2", "3")
	writeCase(t, root, "1", 1, "5 6", "11")
	layout := Layout{Root: root}

	list, err := layout.List(context.Background(), "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(list))
	}
	if list[1].InputPath != filepath.Join(root, "1", "in", "1.in") {
		t.Fatalf("unexpected input path %s", list[1].InputPath)
	}
	if list[1].OutputPath != filepath.Join(root, "1", "out", "1.out") {
		t.Fatalf("unexpected output path %s", list[1].OutputPath)
	}
}

func TestLayoutListMismatchUsesInputCount(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "7", 0, "a", "a")
	writeCase(t, root, "7", 1, "b", "")
	writeCase(t, root, "7", 2, "c", "")

	list, err := Layout{Root: root}.List(context.Background(), "7")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 cases from inputs, got %d", len(list))
	}
}

func TestLayoutListMissingProblem(t *testing.T) {
	_, err := Layout{Root: t.TempDir()}.List(context.Background(), "404")
	if appErr.GetCode(err) != appErr.TestCaseNotFound {
		t.Fatalf("expected TestCaseNotFound, got %v", err)
	}
}

func TestValidateProblemID(t *testing.T) {
	for _, id := range []string{"", ".", "..", "../etc", `a\b`, "a/b"} {
		if err := ValidateProblemID(id); err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
	if err := ValidateProblemID("1001"); err != nil {
		t.Fatalf("expected plain id to pass: %v", err)
	}
}

func TestPackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeCase(t, src, "1", 0, "1 2\n", "3\n")
	writeCase(t, src, "1", 1, "4 5\n", "9\n")

	var buf bytes.Buffer
	if err := WritePack(&buf, filepath.Join(src, "1")); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	dst := t.TempDir()
	if err := ExtractPack(&buf, dst); err != nil {
		t.Fatalf("extract pack: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "out", "1.out"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(data) != "9\n" {
		t.Fatalf("expected extracted output, got %q", data)
	}
}

func TestExtractPackRejectsEscape(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	tw := tar.NewWriter(zw)
	body := []byte("owned")
	if err := tw.WriteHeader(&tar.Header{Name: "../evil", Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	_, _ = tw.Write(body)
	_ = tw.Close()
	_ = zw.Close()

	dst := t.TempDir()
	if err := ExtractPack(&buf, dst); err == nil {
		t.Fatal("expected escape to be rejected")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dst), "evil")); err == nil {
		t.Fatal("escaped file was written")
	}
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    atomic.Int32
	delay   time.Duration
}

func (s *fakeStorage) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	s.gets.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+objectKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", objectKey, storage.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+objectKey] = data
	return nil
}

func (s *fakeStorage) StatObject(ctx context.Context, bucket, objectKey string) (storage.ObjectStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+objectKey]
	if !ok {
		return storage.ObjectStat{}, storage.ErrObjectNotFound
	}
	return storage.ObjectStat{SizeBytes: int64(len(data))}, nil
}

func TestPackFetcherSharesDownload(t *testing.T) {
	src := t.TempDir()
	writeCase(t, src, "42", 0, "1 1\n", "2\n")
	var pack bytes.Buffer
	if err := WritePack(&pack, filepath.Join(src, "42")); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	store := &fakeStorage{objects: map[string][]byte{"judge/cases/42.tar.zst": pack.Bytes()}, delay: 50 * time.Millisecond}

	var outcomes []string
	var mu sync.Mutex
	root := t.TempDir()
	fetcher := NewPackFetcher(Layout{Root: root}, store, FetcherConfig{
		Bucket: "judge",
		Prefix: "cases/",
		OnFetch: func(outcome string) {
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		},
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- fetcher.Ensure(context.Background(), "42")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	if got := store.gets.Load(); got != 1 {
		t.Fatalf("expected a single download, got %d", got)
	}
	if len(outcomes) != 1 || outcomes[0] != "ok" {
		t.Fatalf("unexpected fetch outcomes %v", outcomes)
	}
	list, err := Layout{Root: root}.List(context.Background(), "42")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected installed case, got %v %v", list, err)
	}

	// Installed problems are served from disk.
	if err := fetcher.Ensure(context.Background(), "42"); err != nil {
		t.Fatalf("ensure cached: %v", err)
	}
	if got := store.gets.Load(); got != 1 {
		t.Fatalf("expected no further download, got %d", got)
	}
}

func TestPackFetcherMissingPack(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}}
	fetcher := NewPackFetcher(Layout{Root: t.TempDir()}, store, FetcherConfig{Bucket: "judge"})
	err := fetcher.Ensure(context.Background(), "9")
	if appErr.GetCode(err) != appErr.TestCaseNotFound {
		t.Fatalf("expected TestCaseNotFound, got %v", err)
	}
}

func TestPackFetcherWithoutStorage(t *testing.T) {
	root := t.TempDir()
	fetcher := NewPackFetcher(Layout{Root: root}, nil, FetcherConfig{})
	if err := fetcher.Ensure(context.Background(), "1"); appErr.GetCode(err) != appErr.TestCaseNotFound {
		t.Fatalf("expected TestCaseNotFound, got %v", err)
	}
	writeCase(t, root, "1", 0, "x", "x")
	if err := fetcher.Ensure(context.Background(), "1"); err != nil {
		t.Fatalf("expected local problem to be found: %v", err)
	}
}

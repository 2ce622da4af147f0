package cases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/Gooit/Interpreter/internal/common/storage"
	appErr "github.com/Gooit/Interpreter/pkg/errors"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 2 * time.Minute

// FetcherConfig configures where case packs live in object storage.
type FetcherConfig struct {
	Bucket  string
	Prefix  string
	Timeout time.Duration
	// OnFetch, if set, is called with "ok", "not_found" or "error" after each download.
	OnFetch func(outcome string)
}

// PackFetcher makes sure a problem's cases are on disk, downloading
// <Prefix><problem>.tar.zst on a miss.
type PackFetcher struct {
	layout  Layout
	storage storage.ObjectStorage
	cfg     FetcherConfig
	group   singleflight.Group
}

// NewPackFetcher creates a fetcher. A nil storage turns Ensure into a local existence check.
func NewPackFetcher(layout Layout, objStorage storage.ObjectStorage, cfg FetcherConfig) *PackFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	return &PackFetcher{layout: layout, storage: objStorage, cfg: cfg}
}

// Ensure returns once the problem's case directory exists locally.
// Concurrent callers for the same problem share one download.
func (f *PackFetcher) Ensure(ctx context.Context, problemID string) error {
	if err := ValidateProblemID(problemID); err != nil {
		return err
	}
	if f.layout.Exists(problemID) {
		return nil
	}
	if f.storage == nil {
		return appErr.Newf(appErr.TestCaseNotFound, "no test cases for problem %s", problemID)
	}

	ch := f.group.DoChan(problemID, func() (interface{}, error) {
		// Detached so one caller's cancellation does not fail the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.cfg.Timeout)
		defer cancel()
		return nil, f.fetch(fetchCtx, problemID)
	})
	select {
	case <-ctx.Done():
		return appErr.Wrap(ctx.Err(), appErr.Timeout)
	case res := <-ch:
		return res.Err
	}
}

func (f *PackFetcher) fetch(ctx context.Context, problemID string) error {
	if f.layout.Exists(problemID) {
		return nil
	}
	key := f.cfg.Prefix + problemID + PackExt
	reader, err := f.storage.GetObject(ctx, f.cfg.Bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			f.observe("not_found")
			return appErr.Newf(appErr.TestCaseNotFound, "no test cases for problem %s", problemID)
		}
		f.observe("error")
		return appErr.Wrapf(err, appErr.StorageError, "download case pack %s", key)
	}
	defer reader.Close()

	if err := os.MkdirAll(f.layout.Root, 0755); err != nil {
		f.observe("error")
		return appErr.Wrapf(err, appErr.CacheError, "create case root")
	}
	tmpDir, err := os.MkdirTemp(f.layout.Root, ".extract-"+problemID+"-")
	if err != nil {
		f.observe("error")
		return appErr.Wrapf(err, appErr.CacheError, "create extract dir")
	}
	defer os.RemoveAll(tmpDir)

	if err := ExtractPack(reader, tmpDir); err != nil {
		f.observe("error")
		return appErr.Wrapf(err, appErr.TestCaseInvalid, "extract case pack %s", key)
	}
	if info, err := os.Stat(filepath.Join(tmpDir, inputDir)); err != nil || !info.IsDir() {
		f.observe("error")
		return appErr.Newf(appErr.TestCaseInvalid, "case pack %s has no %s directory", key, inputDir)
	}
	if err := os.Rename(tmpDir, f.layout.ProblemDir(problemID)); err != nil {
		// Another process may have installed the same problem first.
		if f.layout.Exists(problemID) {
			f.observe("ok")
			return nil
		}
		f.observe("error")
		return appErr.Wrapf(err, appErr.CacheError, "install case pack %s", key)
	}
	f.observe("ok")
	logger.Info(ctx, "case pack installed", zap.String("problem_id", problemID), zap.String("key", key))
	return nil
}

func (f *PackFetcher) observe(outcome string) {
	if f.cfg.OnFetch != nil {
		f.cfg.OnFetch(outcome)
	}
}

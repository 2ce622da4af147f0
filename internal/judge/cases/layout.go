// Package cases locates problem test cases on disk and fetches missing
// case packs from object storage.
package cases

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	appErr "github.com/Gooit/Interpreter/pkg/errors"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	inputDir  = "in"
	outputDir = "out"
	inputExt  = ".in"
	outputExt = ".out"
)

// Case is one zero-based test case of a problem.
type Case struct {
	Index      int
	InputPath  string
	OutputPath string
}

// Layout maps problems onto <Root>/<problem>/in/<i>.in and <Root>/<problem>/out/<i>.out.
type Layout struct {
	Root string
}

func (l Layout) ProblemDir(problemID string) string {
	return filepath.Join(l.Root, problemID)
}

func (l Layout) InputPath(problemID string, index int) string {
	return filepath.Join(l.Root, problemID, inputDir, strconv.Itoa(index)+inputExt)
}

func (l Layout) OutputPath(problemID string, index int) string {
	return filepath.Join(l.Root, problemID, outputDir, strconv.Itoa(index)+outputExt)
}

// Exists reports whether the problem's input directory is present.
func (l Layout) Exists(problemID string) bool {
	info, err := os.Stat(filepath.Join(l.ProblemDir(problemID), inputDir))
	return err == nil && info.IsDir()
}

// List returns the problem's cases. The case count is the number of input
// files; a different number of expected output files is only logged.
func (l Layout) List(ctx context.Context, problemID string) ([]Case, error) {
	if err := ValidateProblemID(problemID); err != nil {
		return nil, err
	}
	inCount, err := countFiles(filepath.Join(l.ProblemDir(problemID), inputDir), inputExt)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.Newf(appErr.TestCaseNotFound, "no test cases for problem %s", problemID)
		}
		return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "read test cases of problem %s", problemID)
	}
	outCount, err := countFiles(filepath.Join(l.ProblemDir(problemID), outputDir), outputExt)
	if err != nil && !os.IsNotExist(err) {
		return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "read expected outputs of problem %s", problemID)
	}
	if inCount != outCount {
		logger.Warn(ctx, "test case input/output count mismatch",
			zap.String("problem_id", problemID),
			zap.Int("inputs", inCount),
			zap.Int("outputs", outCount),
		)
	}
	list := make([]Case, 0, inCount)
	for i := 0; i < inCount; i++ {
		list = append(list, Case{
			Index:      i,
			InputPath:  l.InputPath(problemID, i),
			OutputPath: l.OutputPath(problemID, i),
		})
	}
	return list, nil
}

// ValidateProblemID rejects ids that could escape the case root.
func ValidateProblemID(problemID string) error {
	if problemID == "" {
		return appErr.ValidationError("problem_id", "required")
	}
	if problemID == "." || problemID == ".." || strings.ContainsAny(problemID, `/\`) || strings.ContainsRune(problemID, 0) {
		return appErr.ValidationError("problem_id", "invalid")
	}
	return nil
}

func countFiles(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ext) {
			n++
		}
	}
	return n, nil
}

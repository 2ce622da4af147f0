// Package compare grades a program's output against the expected answer.
package compare

import (
	"context"
	"os"
	"strings"
	"unicode"

	"github.com/Gooit/Interpreter/internal/judge/status"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
)

// Comparer grades one case from files on disk.
type Comparer interface {
	CompareFiles(ctx context.Context, expectedPath, producedPath string) status.Status
}

// FileComparer is the default Comparer.
type FileComparer struct{}

// CompareFiles reads both files and grades them with Compare.
// An unreadable expected file passes the case.
func (FileComparer) CompareFiles(ctx context.Context, expectedPath, producedPath string) status.Status {
	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		logger.Warn(ctx, "expected output unreadable, case skipped",
			zap.String("path", expectedPath), zap.Error(err))
		return status.Accepted
	}
	produced, err := os.ReadFile(producedPath)
	if err != nil {
		logger.Error(ctx, "produced output unreadable",
			zap.String("path", producedPath), zap.Error(err))
		return status.SystemError
	}
	return Compare(string(expected), string(produced))
}

// Compare classifies produced output against expected output.
// Checks run in a fixed order and the first match wins.
func Compare(expected, produced string) status.Status {
	exp := normalizeExpected(expected)
	got := normalizeProduced(produced)

	if exp == got {
		return status.Accepted
	}
	if equalFields(strings.Fields(exp), strings.Fields(got)) {
		return status.PresentationError
	}
	if strings.Contains(got, exp) {
		return status.OutputLimit
	}
	return status.WrongAnswer
}

func normalizeExpected(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func normalizeProduced(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package language

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const outputDirName = "out"

// Workspace is the private scratch directory of one submission:
// <root>/<language>/<solution>-<uuid>, holding the source, the artifact and
// out/<i>.out for every case run.
type Workspace struct {
	Dir string
}

// WorkspaceOwner, when UID is positive, is applied to new workspaces so a
// judged process running under that user can write into them.
type WorkspaceOwner struct {
	UID int
	GID int
}

// NewWorkspace creates a fresh workspace for one submission.
func NewWorkspace(root, language, solutionID string, owner WorkspaceOwner) (*Workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("work root is required")
	}
	name := sanitizePathPart(solutionID)
	if name == "" {
		name = "anonymous"
	}
	dir := filepath.Join(root, sanitizePathPart(language), name+"-"+uuid.NewString())
	outDir := filepath.Join(dir, outputDirName)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if owner.UID > 0 {
		gid := owner.GID
		if gid <= 0 {
			gid = owner.UID
		}
		for _, p := range []string{dir, outDir} {
			if err := os.Chown(p, owner.UID, gid); err != nil {
				_ = os.RemoveAll(dir)
				return nil, fmt.Errorf("chown workspace: %w", err)
			}
		}
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the location of a file directly inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// OutputPath is where the output of case index is captured.
func (w *Workspace) OutputPath(index int) string {
	return filepath.Join(w.Dir, outputDirName, strconv.Itoa(index)+".out")
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

func sanitizePathPart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '+':
			return r
		default:
			return '_'
		}
	}, s)
}

// Package spec defines the execution specification and resource limits.
package spec

import (
	"io"
	"os"
)

// ResourceLimit describes hard limits enforced by the sandbox.
// Zero means unlimited.
type ResourceLimit struct {
	TimeMs     int64
	WallTimeMs int64
	MemoryKB   int64
	OutputKB   int64
}

// RunSpec is the unified execution specification for one process.
type RunSpec struct {
	Cmd []string
	Dir string
	Env []string
	// Stdin and Stdout are handed to the child as-is; the caller owns and closes them.
	Stdin  *os.File
	Stdout *os.File
	Stderr io.Writer
	Limits ResourceLimit
}

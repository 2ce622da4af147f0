// Package result defines sandbox execution outcomes and their classification.
package result

import (
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
	"github.com/Gooit/Interpreter/internal/judge/status"
)

// Class is the completion classification of one execution.
type Class int

const (
	ClassNormal Class = iota
	ClassTimeLimit
	ClassMemoryLimit
	ClassOutputLimit
	ClassRuntimeError
	ClassSystemError
)

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassTimeLimit:
		return "time_limit"
	case ClassMemoryLimit:
		return "memory_limit"
	case ClassOutputLimit:
		return "output_limit"
	case ClassRuntimeError:
		return "runtime_error"
	case ClassSystemError:
		return "system_error"
	default:
		return "unknown"
	}
}

// Status maps an abnormal classification onto the verdict status.
func (c Class) Status() status.Status {
	switch c {
	case ClassNormal:
		return status.Accepted
	case ClassTimeLimit:
		return status.TimeLimitExceeded
	case ClassMemoryLimit:
		return status.MemoryLimitExceeded
	case ClassOutputLimit:
		return status.OutputLimit
	case ClassRuntimeError:
		return status.RuntimeError
	default:
		return status.SystemError
	}
}

// Outcome is the raw result of one sandboxed execution.
type Outcome struct {
	Class      Class
	ExitCode   int
	Signal     string
	TimeMs     int64
	WallTimeMs int64
	MemoryKB   int64
	Stderr     string
	Error      string
}

// SystemFailure builds the outcome reported when the runner itself failed.
func SystemFailure(err error) Outcome {
	o := Outcome{Class: ClassSystemError, ExitCode: -1}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// Usage is what the process runner measured before classification.
type Usage struct {
	ExitCode       int
	Signaled       bool
	WallTimedOut   bool
	CPUExceeded    bool
	OutputExceeded bool
	OomKilled      bool
	TimeMs         int64
	MemoryKB       int64
}

// Classify maps raw usage onto a class. Limits are checked in the order
// time, memory, output, exit status.
func Classify(u Usage, limits spec.ResourceLimit) Class {
	if u.WallTimedOut || u.CPUExceeded {
		return ClassTimeLimit
	}
	if limits.TimeMs > 0 && u.TimeMs > limits.TimeMs {
		return ClassTimeLimit
	}
	if u.OomKilled || (limits.MemoryKB > 0 && u.MemoryKB > limits.MemoryKB) {
		return ClassMemoryLimit
	}
	if u.OutputExceeded {
		return ClassOutputLimit
	}
	if u.Signaled || u.ExitCode != 0 {
		return ClassRuntimeError
	}
	return ClassNormal
}

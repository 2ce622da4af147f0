// Package status is the single source of truth for judge outcome labels.
package status

// Status is the terminal label of one judged case or submission.
type Status int

const (
	Accepted Status = iota
	WrongAnswer
	PresentationError
	OutputLimit
	TimeLimitExceeded
	MemoryLimitExceeded
	RuntimeError
	CompileError
	SystemError
)

var labels = [...]string{
	Accepted:            "Accepted",
	WrongAnswer:         "Wrong Answer",
	PresentationError:   "Presentation Error",
	OutputLimit:         "Output Limit",
	TimeLimitExceeded:   "Time Limit Exceeded",
	MemoryLimitExceeded: "Memory Limit Exceeded",
	RuntimeError:        "Runtime Error",
	CompileError:        "Compile Error",
	SystemError:         "System Error",
}

var codes = [...]string{
	Accepted:            "AC",
	WrongAnswer:         "WA",
	PresentationError:   "PE",
	OutputLimit:         "OLE",
	TimeLimitExceeded:   "TLE",
	MemoryLimitExceeded: "MLE",
	RuntimeError:        "RE",
	CompileError:        "CE",
	SystemError:         "SE",
}

// String returns the human readable label sent to callers.
func (s Status) String() string {
	if s < 0 || int(s) >= len(labels) {
		return "Unknown"
	}
	return labels[s]
}

// Code returns the short verdict code used in metrics.
func (s Status) Code() string {
	if s < 0 || int(s) >= len(codes) {
		return "UNK"
	}
	return codes[s]
}

// MarshalText encodes the status as its label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is the terminal result of judging one submission.
type Verdict struct {
	Accepted    bool
	Status      Status
	MaxTimeMs   *int64
	MaxMemoryKB *int64
	// Detail carries the compiler diagnostic or the infrastructure cause.
	Detail string
}

// Fail builds a non-accepted verdict.
func Fail(s Status, detail string) Verdict {
	return Verdict{Status: s, Detail: detail}
}

// Pass builds an accepted verdict carrying the per-case maxima.
func Pass(maxTimeMs, maxMemoryKB int64) Verdict {
	return Verdict{
		Accepted:    true,
		Status:      Accepted,
		MaxTimeMs:   &maxTimeMs,
		MaxMemoryKB: &maxMemoryKB,
	}
}

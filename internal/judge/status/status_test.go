package status

import "testing"

func TestStatusLabels(t *testing.T) {
	cases := map[Status]string{
		Accepted:            "Accepted",
		WrongAnswer:         "Wrong Answer",
		PresentationError:   "Presentation Error",
		OutputLimit:         "Output Limit",
		TimeLimitExceeded:   "Time Limit Exceeded",
		MemoryLimitExceeded: "Memory Limit Exceeded",
		RuntimeError:        "Runtime Error",
		CompileError:        "Compile Error",
		SystemError:         "System Error",
		Status(99):          "Unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if Status(-1).Code() != "UNK" {
		t.Fatalf("expected UNK for out of range status")
	}
}

func TestPassCarriesMaxima(t *testing.T) {
	v := Pass(120, 2048)
	if !v.Accepted || v.Status != Accepted {
		t.Fatalf("expected accepted verdict, got %+v", v)
	}
	if v.MaxTimeMs == nil || *v.MaxTimeMs != 120 {
		t.Fatalf("unexpected max time: %v", v.MaxTimeMs)
	}
	if v.MaxMemoryKB == nil || *v.MaxMemoryKB != 2048 {
		t.Fatalf("unexpected max memory: %v", v.MaxMemoryKB)
	}

	f := Fail(WrongAnswer, "")
	if f.Accepted || f.MaxTimeMs != nil || f.MaxMemoryKB != nil {
		t.Fatalf("expected bare failure verdict, got %+v", f)
	}
}

//go:build linux

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Gooit/Interpreter/internal/judge/sandbox/result"
	"github.com/Gooit/Interpreter/internal/judge/sandbox/spec"
	"github.com/Gooit/Interpreter/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// pipeWaitDelay bounds how long Wait keeps draining caller supplied writers
// after the process has exited or been killed.
const pipeWaitDelay = 250 * time.Millisecond

type linuxEngine struct {
	cfg Config
}

// NewEngine creates a Linux process engine.
func NewEngine(cfg Config) (Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.EnableCgroup && cfg.CgroupRoot == "" {
		return nil, fmt.Errorf("cgroup root is required when cgroup is enabled")
	}
	return &linuxEngine{cfg: cfg}, nil
}

func (e *linuxEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.Outcome, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.Outcome{}, err
	}
	limits := runSpec.Limits

	cgroupPath := ""
	cgroupCleanup := func() {}
	if e.cfg.EnableCgroup {
		var err error
		cgroupPath, cgroupCleanup, err = createRunCgroup(e.cfg.CgroupRoot)
		if err != nil {
			return result.Outcome{}, fmt.Errorf("create cgroup: %w", err)
		}
		if err := applyCgroupLimits(cgroupPath, limits); err != nil {
			cgroupCleanup()
			return result.Outcome{}, fmt.Errorf("apply cgroup limits: %w", err)
		}
	}
	defer cgroupCleanup()

	cmd := exec.Command(runSpec.Cmd[0], runSpec.Cmd[1:]...)
	cmd.Dir = runSpec.Dir
	cmd.Env = runSpec.Env
	if runSpec.Stdin != nil {
		cmd.Stdin = runSpec.Stdin
	}
	if runSpec.Stdout != nil {
		cmd.Stdout = runSpec.Stdout
	}
	// Stderr goes to a file unless the caller supplies a writer. A pipe would
	// keep Wait blocked for as long as any detached descendant holds it.
	stderrPath := ""
	if runSpec.Stderr != nil {
		cmd.Stderr = runSpec.Stderr
	} else {
		stderrFile, err := os.CreateTemp("", "judge-stderr-*")
		if err != nil {
			return result.Outcome{}, fmt.Errorf("create stderr file: %w", err)
		}
		stderrPath = stderrFile.Name()
		defer os.Remove(stderrPath)
		defer stderrFile.Close()
		cmd.Stderr = stderrFile
	}
	cmd.WaitDelay = pipeWaitDelay
	cmd.SysProcAttr = e.buildSysProcAttr()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.Outcome{}, fmt.Errorf("start process: %w", err)
	}
	pid := cmd.Process.Pid

	if cgroupPath != "" {
		if err := addProcessToCgroup(cgroupPath, pid); err != nil {
			logger.Warn(ctx, "add process to cgroup failed", zap.String("cgroup", cgroupPath), zap.Error(err))
		}
	}
	if err := applyRlimits(pid, limits); err != nil {
		logger.Warn(ctx, "apply rlimits failed", zap.Int("pid", pid), zap.Error(err))
	}

	var timedOut atomic.Bool
	var canceled atomic.Bool
	done := make(chan struct{})
	go func() {
		var wallTimer <-chan time.Time
		if wallMs := e.cfg.wallLimitMs(limits.TimeMs, limits.WallTimeMs); wallMs > 0 {
			timer := time.NewTimer(time.Duration(wallMs) * time.Millisecond)
			defer timer.Stop()
			wallTimer = timer.C
		}
		select {
		case <-ctx.Done():
			canceled.Store(true)
			killRun(pid, cgroupPath)
		case <-wallTimer:
			timedOut.Store(true)
			killRun(pid, cgroupPath)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	wallTimeMs := time.Since(start).Milliseconds()

	state := cmd.ProcessState
	if state == nil {
		return result.Outcome{}, fmt.Errorf("wait process: %w", waitErr)
	}
	if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result.Outcome{}, fmt.Errorf("wait process: %w", waitErr)
		}
	}

	usage := measure(state, cgroupPath)
	usage.WallTimedOut = timedOut.Load()

	outcome := result.Outcome{
		Class:      result.Classify(usage, limits),
		ExitCode:   usage.ExitCode,
		TimeMs:     usage.TimeMs,
		WallTimeMs: wallTimeMs,
		MemoryKB:   usage.MemoryKB,
		Stderr:     ReadLimitedFile(stderrPath, e.cfg.StderrMaxBytes),
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		outcome.Signal = ws.Signal().String()
	}
	if canceled.Load() && !usage.WallTimedOut {
		outcome.Class = result.ClassSystemError
		outcome.Error = ctx.Err().Error()
	}
	return outcome, nil
}

func measure(state *os.ProcessState, cgroupPath string) result.Usage {
	u := result.Usage{ExitCode: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		u.Signaled = true
		switch ws.Signal() {
		case syscall.SIGXCPU:
			u.CPUExceeded = true
		case syscall.SIGXFSZ:
			u.OutputExceeded = true
		}
	}
	if ru, ok := state.SysUsage().(*syscall.Rusage); ok {
		cpu := time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano())
		u.TimeMs = cpu.Milliseconds()
		// Maxrss is reported in kilobytes on Linux.
		u.MemoryKB = ru.Maxrss
	}
	if cgroupPath != "" {
		if peak := cgroupMemoryPeakKB(cgroupPath); peak > u.MemoryKB {
			u.MemoryKB = peak
		}
		if wasOomKilled(cgroupPath) {
			u.OomKilled = true
		}
	}
	return u
}

// applyRlimits sets CPU and file size limits on the started child. The
// wall timer and post-run checks cover the short window before they apply.
func applyRlimits(pid int, limits spec.ResourceLimit) error {
	if limits.TimeMs > 0 {
		seconds := uint64((limits.TimeMs+999)/1000) + 1
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &unix.Rlimit{Cur: seconds, Max: seconds + 1}, nil); err != nil {
			return fmt.Errorf("prlimit cpu: %w", err)
		}
	}
	if limits.OutputKB > 0 {
		bytes := uint64(limits.OutputKB) * 1024
		if err := unix.Prlimit(pid, unix.RLIMIT_FSIZE, &unix.Rlimit{Cur: bytes, Max: bytes}, nil); err != nil {
			return fmt.Errorf("prlimit fsize: %w", err)
		}
	}
	return nil
}

func (e *linuxEngine) buildSysProcAttr() *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if e.cfg.RunAsUID > 0 {
		gid := e.cfg.RunAsGID
		if gid <= 0 {
			gid = e.cfg.RunAsUID
		}
		attr.Credential = &syscall.Credential{
			Uid:         uint32(e.cfg.RunAsUID),
			Gid:         uint32(gid),
			NoSetGroups: true,
		}
	}
	return attr
}

// killRun kills the process group and, when present, everything left in the
// run cgroup, which also reaches descendants that called setsid.
func killRun(pid int, cgroupPath string) {
	if pid > 0 {
		_ = unix.Kill(-pid, unix.SIGKILL)
	}
	if cgroupPath != "" {
		_ = killCgroup(cgroupPath)
	}
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if len(runSpec.Cmd) == 0 || runSpec.Cmd[0] == "" {
		return fmt.Errorf("command is required")
	}
	if runSpec.Dir == "" {
		return fmt.Errorf("work dir is required")
	}
	return nil
}

package engine

// Config controls sandbox engine behavior.
type Config struct {
	// WallTimeFactor scales the CPU limit into the wall clock limit when the
	// RunSpec does not set one.
	WallTimeFactor  float64
	WallTimeExtraMs int64
	StderrMaxBytes  int64
	// RunAsUID and RunAsGID drop privileges for the judged process; zero keeps the current user.
	RunAsUID int
	RunAsGID int

	CgroupRoot   string
	EnableCgroup bool
}

const (
	defaultWallTimeFactor  = 2.0
	defaultWallTimeExtraMs = 500
	defaultStderrMaxBytes  = 64 * 1024
)

func (c Config) withDefaults() Config {
	if c.WallTimeFactor <= 0 {
		c.WallTimeFactor = defaultWallTimeFactor
	}
	if c.WallTimeExtraMs <= 0 {
		c.WallTimeExtraMs = defaultWallTimeExtraMs
	}
	if c.StderrMaxBytes <= 0 {
		c.StderrMaxBytes = defaultStderrMaxBytes
	}
	return c
}

// wallLimitMs derives the wall clock budget for a CPU limit.
func (c Config) wallLimitMs(cpuMs, explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	if cpuMs <= 0 {
		return 0
	}
	return int64(float64(cpuMs)*c.WallTimeFactor) + c.WallTimeExtraMs
}

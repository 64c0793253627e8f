package sched

// Mode is the lifecycle state of a Task. Exactly one holds at any time.
type Mode int

const (
	ModeRunning Mode = iota
	ModePaused
	ModeSleepSeconds
	ModeSleepMillis
	ModeSleepMicros
	ModeKillPending
)

func (m Mode) String() string {
	switch m {
	case ModeRunning:
		return "Running"
	case ModePaused:
		return "Paused"
	case ModeSleepSeconds:
		return "SleepSeconds"
	case ModeSleepMillis:
		return "SleepMillis"
	case ModeSleepMicros:
		return "SleepMicros"
	case ModeKillPending:
		return "KillPending"
	default:
		return "Unknown"
	}
}

// Sleeping reports whether m is one of the sleep variants.
func (m Mode) Sleeping() bool {
	return m == ModeSleepSeconds || m == ModeSleepMillis || m == ModeSleepMicros
}

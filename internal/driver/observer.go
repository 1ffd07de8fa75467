package driver

// PhaseStatus reports whether checking a snapshot started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a snapshot's check has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	PhaseFailed
)

// PhaseEvent describes a per-snapshot progress boundary.
type PhaseEvent struct {
	Path   string
	Status PhaseStatus
	Errors int
}

// PhaseObserver receives progress events emitted during CheckFiles.
// Observers may be called from several goroutines at once.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) emit(ev PhaseEvent) {
	if o != nil {
		o(ev)
	}
}

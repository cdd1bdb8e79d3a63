package driver

import "time"

// Phase names a step of linting one entry.
type Phase string

const (
	PhaseMerge    Phase = "merge"
	PhaseValidate Phase = "validate"
	PhaseRemap    Phase = "remap"
)

// Status captures progress state within a phase.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one entry.
type Event struct {
	Entry   string
	Phase   Phase
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines during LintEntries.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SetProgress installs the sink that receives lint progress. A nil sink
// disables reporting.
func (d *Driver) SetProgress(sink ProgressSink) {
	d.progress = sink
}

func (d *Driver) emit(entry string, phase Phase, status Status, err error, elapsed time.Duration) {
	if d.progress == nil {
		return
	}
	d.progress.OnEvent(Event{Entry: entry, Phase: phase, Status: status, Err: err, Elapsed: elapsed})
}

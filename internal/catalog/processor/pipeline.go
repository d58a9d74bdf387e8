package processor

import (
	"sync"
	"time"
)

// PipelineState is the observable state of the upload pipeline
type PipelineState string

const (
	StateIdle       PipelineState = "idle"
	StateUploading  PipelineState = "uploading"
	StateIndexing   PipelineState = "indexing"
	StateGenerating PipelineState = "generating"
	StateSuccess    PipelineState = "success"
	StateError      PipelineState = "error"
)

// displayStateDelay is how long a submission shows as "uploading" before
// flipping to its working state. Purely a UX signal.
const displayStateDelay = 2 * time.Second

// Pipeline tracks a single catalog submission at a time. Terminal states
// (success, error) are sticky until the next submission or an explicit
// dismiss.
type Pipeline struct {
	mu           sync.Mutex
	state        PipelineState
	message      string
	startedAt    time.Time
	displayTimer *time.Timer
}

// NewPipeline returns an idle pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{state: StateIdle}
}

// PipelineStatus is a point-in-time snapshot of the pipeline
type PipelineStatus struct {
	State     PipelineState `json:"state"`
	Message   string        `json:"message,omitempty"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
}

// begin claims the pipeline for a new submission. workingState is the state
// shown once the display delay elapses.
func (p *Pipeline) begin(workingState PipelineState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateUploading, StateIndexing, StateGenerating:
		return ErrUploadInFlight
	}

	p.state = StateUploading
	p.message = ""
	p.startedAt = time.Now()

	if p.displayTimer != nil {
		p.displayTimer.Stop()
	}
	p.displayTimer = time.AfterFunc(displayStateDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state == StateUploading {
			p.state = workingState
		}
	})

	return nil
}

// succeed moves the pipeline to its sticky success state
func (p *Pipeline) succeed(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimer()
	p.state = StateSuccess
	p.message = message
}

// fail moves the pipeline to its sticky error state
func (p *Pipeline) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimer()
	p.state = StateError
	p.message = err.Error()
}

// Dismiss clears a terminal state back to idle. It is a no-op while a
// submission is running or when already idle.
func (p *Pipeline) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSuccess || p.state == StateError {
		p.state = StateIdle
		p.message = ""
		p.startedAt = time.Time{}
	}
}

// Status returns a snapshot of the pipeline
func (p *Pipeline) Status() PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := PipelineStatus{
		State:   p.state,
		Message: p.message,
	}
	if !p.startedAt.IsZero() {
		startedAt := p.startedAt
		status.StartedAt = &startedAt
	}
	return status
}

func (p *Pipeline) stopTimer() {
	if p.displayTimer != nil {
		p.displayTimer.Stop()
		p.displayTimer = nil
	}
}

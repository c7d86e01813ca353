// Package jobclient submits wallpaper jobs and follows them until the backend
// reports a terminal status.
//
// Machine is the pure transition function: it takes inputs and returns the
// new Snapshot plus the effects a runtime has to perform. Controller is that
// runtime; it owns the single poll timer and talks to the backend.
package jobclient

import (
	"fmt"
	"time"

	"wallclient/internal/domain"
)

// PollInterval is the fixed period between status requests.
const PollInterval = 3000 * time.Millisecond

// State is the lifecycle state of the client.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateErrored    State = "errored"
)

// Terminal reports whether no further poll ticks are expected.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateErrored
}

// Notice classifies the user-facing message attached to a snapshot.
type Notice string

const (
	NoticeNone             Notice = ""
	NoticeValidation       Notice = "validation"
	NoticeUploading        Notice = "uploading"
	NoticeProcessing       Notice = "processing"
	NoticeReady            Notice = "ready"
	NoticeProcessingFailed Notice = "processing_failed"
	NoticeSubmissionError  Notice = "submission_error"
	NoticePollError        Notice = "poll_error"
)

// Snapshot is an immutable view of the machine after a transition.
type Snapshot struct {
	State         State  `json:"state"`
	Generation    uint64 `json:"generation"`
	JobID         string `json:"job_id,omitempty"`
	JobStatus     string `json:"job_status,omitempty"`
	FinalURL      string `json:"final_url,omitempty"`
	Notice        Notice `json:"notice,omitempty"`
	Detail        string `json:"detail,omitempty"`
	SubmitEnabled bool   `json:"submit_enabled"`
}

// Effect is a side effect requested by a transition.
type Effect interface {
	effect()
}

// SendCreate asks the runtime to upload the images.
type SendCreate struct {
	Generation uint64
}

// StartTimer starts the poll timer for a job.
type StartTimer struct {
	Generation uint64
	JobID      string
	Interval   time.Duration
}

// StopTimer stops the active poll timer, if any.
type StopTimer struct {
	Generation uint64
}

// FetchStatus asks the runtime to request the job status once.
type FetchStatus struct {
	Generation uint64
	JobID      string
}

// RefreshGallery asks the runtime to reload the read-only gallery.
type RefreshGallery struct{}

func (SendCreate) effect()     {}
func (StartTimer) effect()     {}
func (StopTimer) effect()      {}
func (FetchStatus) effect()    {}
func (RefreshGallery) effect() {}

// Machine is not safe for concurrent use; Controller serialises access.
type Machine struct {
	snap        Snapshot
	timerActive bool
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{snap: Snapshot{State: StateIdle, SubmitEnabled: true}}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	return m.snap
}

// TimerActive reports whether the machine believes a poll timer is running.
func (m *Machine) TimerActive() bool {
	return m.timerActive
}

// Submit starts a new generation. A missing image yields an error wrapping
// domain.ErrValidation, no effects and no state change.
func (m *Machine) Submit(light, dark *domain.ImageFile) (Snapshot, []Effect, error) {
	if err := domain.ValidatePair(light, dark); err != nil {
		return m.snap, nil, err
	}
	var effects []Effect
	if m.timerActive {
		effects = append(effects, StopTimer{Generation: m.snap.Generation})
		m.timerActive = false
	}
	gen := m.snap.Generation + 1
	m.snap = Snapshot{
		State:      StateSubmitting,
		Generation: gen,
		Notice:     NoticeUploading,
	}
	effects = append(effects, SendCreate{Generation: gen})
	return m.snap, effects, nil
}

// Created records a successful creation response.
func (m *Machine) Created(gen uint64, job domain.Job) (Snapshot, []Effect) {
	if gen != m.snap.Generation || m.snap.State != StateSubmitting {
		return m.snap, nil
	}
	m.snap.State = StatePolling
	m.snap.JobID = job.ID
	m.snap.JobStatus = string(job.Status)
	m.snap.Notice = NoticeProcessing
	m.timerActive = true
	return m.snap, []Effect{StartTimer{Generation: gen, JobID: job.ID, Interval: PollInterval}}
}

// CreateFailed records a failed creation request. The user may resubmit.
func (m *Machine) CreateFailed(gen uint64, err error) Snapshot {
	if gen != m.snap.Generation || m.snap.State != StateSubmitting {
		return m.snap
	}
	m.snap.State = StateErrored
	m.snap.Notice = NoticeSubmissionError
	m.snap.Detail = errorDetail(err)
	m.snap.SubmitEnabled = true
	return m.snap
}

// Tick handles one firing of the poll timer.
func (m *Machine) Tick(gen uint64) []Effect {
	if gen != m.snap.Generation || m.snap.State != StatePolling {
		return nil
	}
	return []Effect{FetchStatus{Generation: gen, JobID: m.snap.JobID}}
}

// StatusReceived applies a status snapshot from the backend.
func (m *Machine) StatusReceived(gen uint64, job domain.Job) (Snapshot, []Effect) {
	if gen != m.snap.Generation || m.snap.State != StatePolling {
		return m.snap, nil
	}
	m.snap.JobStatus = string(job.Status)
	switch job.Status {
	case domain.JobStatusCompleted:
		m.timerActive = false
		m.snap.State = StateCompleted
		m.snap.FinalURL = job.FinalURL
		m.snap.Notice = NoticeReady
		return m.snap, []Effect{StopTimer{Generation: gen}, RefreshGallery{}}
	case domain.JobStatusFailed:
		m.timerActive = false
		m.snap.State = StateFailed
		m.snap.Notice = NoticeProcessingFailed
		m.snap.SubmitEnabled = true
		return m.snap, []Effect{StopTimer{Generation: gen}}
	}
	return m.snap, nil
}

// StatusFailed records a failed status request and ends the cycle.
func (m *Machine) StatusFailed(gen uint64, err error) (Snapshot, []Effect) {
	if gen != m.snap.Generation || m.snap.State != StatePolling {
		return m.snap, nil
	}
	m.timerActive = false
	m.snap.State = StateErrored
	m.snap.Notice = NoticePollError
	m.snap.Detail = errorDetail(err)
	return m.snap, []Effect{StopTimer{Generation: gen}}
}

// Err maps a terminal snapshot to the matching domain error.
func (s Snapshot) Err() error {
	switch s.Notice {
	case NoticeSubmissionError:
		return fmt.Errorf("%w: %s", domain.ErrSubmission, s.Detail)
	case NoticePollError:
		return fmt.Errorf("%w: %s", domain.ErrPoll, s.Detail)
	case NoticeProcessingFailed:
		return fmt.Errorf("%w: job %s", domain.ErrProcessing, s.JobID)
	}
	return nil
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package podcast

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a podcast job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status ends the job lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the status edge from->to is part of the job
// state machine. Self transitions are allowed so guarded updates that only
// touch progress do not need special casing.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to == StatusDone || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

// Job is the central entity: one episode request and its current state.
type Job struct {
	ID           string
	Title        string
	Description  string
	Voice        string
	Script       string
	SourceURLs   []string
	MaterialsSet string
	Status       Status
	Progress     float64
	AudioURL     string
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	cp := *j
	if j.SourceURLs != nil {
		cp.SourceURLs = make([]string, len(j.SourceURLs))
		copy(cp.SourceURLs, j.SourceURLs)
	}
	return &cp
}

// SetFailed marks the job as failed with the given message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.Error = message
	j.AudioURL = ""
}

// SetDone marks the job as completed with its published audio location.
func (j *Job) SetDone(audioURL string) {
	j.Status = StatusDone
	j.AudioURL = audioURL
	j.Progress = 1.0
	j.Error = ""
}

// Snapshot is the client-visible view of a job.
type Snapshot struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Progress    float64   `json:"progress"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Voice       string    `json:"voice,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot renders the client-visible view of the job.
func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:          j.ID,
		Status:      string(j.Status),
		Progress:    j.Progress,
		Title:       j.Title,
		Description: j.Description,
		Voice:       j.Voice,
		AudioURL:    j.AudioURL,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// Dump is the full internal state of a job, exposed by the debug endpoint.
type Dump struct {
	Snapshot
	Script       string   `json:"script,omitempty"`
	SourceURLs   []string `json:"source_urls"`
	MaterialsSet string   `json:"materials_set,omitempty"`
}

// Dump renders the debug view of the job.
func (j *Job) Dump() Dump {
	urls := j.SourceURLs
	if urls == nil {
		urls = []string{}
	}
	return Dump{
		Snapshot:     j.Snapshot(),
		Script:       j.Script,
		SourceURLs:   urls,
		MaterialsSet: j.MaterialsSet,
	}
}

package podcast

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrNotFound indicates the requested job id is unknown to the store.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal indicates a guarded mutation targeted a finished job.
	ErrTerminal = errors.New("job is in a terminal state")
	// ErrTransition indicates a mutation attempted a status edge outside the
	// state machine.
	ErrTransition = errors.New("invalid status transition")
	// ErrProgress indicates a mutation attempted to move progress backward.
	ErrProgress = errors.New("progress must not decrease")
)

// CreateParams carries the user-supplied fields of a new job.
type CreateParams struct {
	Title        string
	Description  string
	Voice        string
	Script       string
	SourceURLs   []string
	MaterialsSet string
}

// Store is the process-wide keyed collection of jobs. Insertion order is
// retained so listings are stable.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
}

// NewStore constructs an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new queued job and returns a copy of it.
func (s *Store) Create(params CreateParams) *Job {
	now := time.Now().UTC()
	job := &Job{
		ID:           uuid.NewString(),
		Title:        params.Title,
		Description:  params.Description,
		Voice:        params.Voice,
		Script:       params.Script,
		SourceURLs:   append([]string(nil), params.SourceURLs...),
		MaterialsSet: params.MaterialsSet,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.mu.Unlock()

	return job.Clone()
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Len returns the number of jobs currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// List returns jobs in insertion order, optionally filtered by status, sliced
// by offset/limit after filtering. The returned total counts all matches.
func (s *Store) List(status Status, offset, limit int) ([]*Job, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Job, 0, len(s.order))
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		matched = append(matched, job)
	}
	total := len(matched)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*Job, 0, end-offset)
	for _, job := range matched[offset:end] {
		out = append(out, job.Clone())
	}
	return out, total
}

// Advance applies a guarded mutation to a live job. The mutation runs on a
// copy under the store lock; it is committed only when the job was not
// terminal, the resulting status edge is legal, and progress did not move
// backward. UpdatedAt is bumped on every committed mutation.
func (s *Store) Advance(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, job.Status)
	}

	next := job.Clone()
	fn(next)

	if !CanTransition(job.Status, next.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, job.Status, next.Status)
	}
	if next.Progress < job.Progress {
		return fmt.Errorf("%w: %.2f -> %.2f", ErrProgress, job.Progress, next.Progress)
	}

	next.ID = job.ID
	next.CreatedAt = job.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.jobs[id] = next
	return nil
}

// DeleteOrCancel removes a finished job (and best-effort its artifact under
// storageDir) or marks an unfinished one cancelled. The returned job reflects
// the state just before deletion, or just after cancellation.
func (s *Store) DeleteOrCancel(id, storageDir string) (*Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false, ErrNotFound
	}

	if job.Status == StatusDone || job.Status == StatusFailed {
		delete(s.jobs, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		if storageDir != "" {
			_ = os.Remove(filepath.Join(storageDir, id+".mp3"))
		}
		return job, true, nil
	}

	job.Status = StatusCancelled
	job.UpdatedAt = time.Now().UTC()
	return job.Clone(), false, nil
}

var episodeTitleCaser = cases.Title(language.English)

// Rescan scans storageDir for rendered episodes with no store entry and adopts
// them as completed jobs keyed by file stem. It returns the number of jobs
// added. Unreadable files are skipped.
func (s *Store) Rescan(storageDir string) int {
	entries, err := os.ReadDir(storageDir)
	if err != nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".mp3") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem == "" {
			continue
		}
		if _, exists := s.jobs[stem]; exists {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		ts := info.ModTime().UTC()
		s.jobs[stem] = &Job{
			ID:        stem,
			Title:     "Episode " + episodeTitleCaser.String(stem),
			Status:    StatusDone,
			Progress:  1.0,
			AudioURL:  "/media/audio/" + name,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		s.order = append(s.order, stem)
		added++
	}
	return added
}

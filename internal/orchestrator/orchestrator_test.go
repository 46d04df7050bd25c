package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"podforge/internal/materials"
	"podforge/internal/podcast"
	"podforge/internal/script"
	"podforge/internal/speech"
)

type stubSynth struct {
	mu       sync.Mutex
	requests []speech.Request
	err      error
}

func (s *stubSynth) Synthesize(_ context.Context, req speech.Request) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(req.OutputPath, []byte("audio"), 0o644)
}

func (s *stubSynth) calls() []speech.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]speech.Request(nil), s.requests...)
}

func newTestOrchestrator(t *testing.T, materialsDir string, synth speech.Synthesizer) (*Orchestrator, *podcast.Store, string) {
	t.Helper()
	storageDir := t.TempDir()
	store := podcast.NewStore()
	o := New(
		store,
		materials.NewResolver(materialsDir, "", nil),
		script.NewProducer(nil, nil),
		synth,
		Config{
			StorageDir:         storageDir,
			CheckpointInterval: time.Millisecond,
			ScriptCheckpoints:  3,
		},
		nil,
	)
	return o, store, storageDir
}

func TestRunCompletesPlaceholderJob(t *testing.T) {
	synth := &stubSynth{}
	o, store, storageDir := newTestOrchestrator(t, "", synth)

	job := store.Create(podcast.CreateParams{Title: "Demo Episode"})

	o.Run(context.Background(), job.ID)

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != podcast.StatusDone {
		t.Fatalf("status = %s, want done (error=%q)", got.Status, got.Error)
	}
	if got.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", got.Progress)
	}
	if got.AudioURL != "/media/audio/"+job.ID+".mp3" {
		t.Fatalf("audio url = %q", got.AudioURL)
	}
	if !strings.Contains(got.Script, "[Auto-script] Podcast 'Demo Episode'. Sources: no sources.") {
		t.Fatalf("placeholder script missing: %q", got.Script)
	}
	if _, err := os.Stat(filepath.Join(storageDir, job.ID+".mp3")); err != nil {
		t.Fatalf("audio file not written: %v", err)
	}
}

func TestRunPreservesSuppliedScript(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)

	supplied := "[Host A] A script the caller wrote themselves."
	job := store.Create(podcast.CreateParams{Title: "Custom", Script: supplied})

	o.Run(context.Background(), job.ID)

	got, _ := store.Get(job.ID)
	if got.Script != supplied {
		t.Fatalf("supplied script was rewritten: %q", got.Script)
	}
	calls := synth.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one synthesis call, got %d", len(calls))
	}
	if calls[0].Text != "A script the caller wrote themselves." {
		t.Fatalf("host labels not stripped for narration: %q", calls[0].Text)
	}
}

func TestRunGeneratesScriptFromMaterials(t *testing.T) {
	dir := t.TempDir()
	content := "The first principle is that generated audio should follow the notes closely."
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, dir, synth)
	job := store.Create(podcast.CreateParams{Title: "Notes"})

	o.Run(context.Background(), job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusDone {
		t.Fatalf("status = %s, want done (error=%q)", got.Status, got.Error)
	}
	if !strings.HasPrefix(got.Script, "[Host A] Welcome to the podcast.") {
		t.Fatalf("composed script missing intro: %q", got.Script)
	}
	if !strings.Contains(got.Script, "should follow the notes closely") {
		t.Fatalf("materials content missing from script: %q", got.Script)
	}
}

func TestRunSkipsCancelledJob(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)

	job := store.Create(podcast.CreateParams{Title: "Cancelled"})
	if _, _, err := store.DeleteOrCancel(job.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	o.Run(context.Background(), job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusCancelled {
		t.Fatalf("cancelled job was resurrected to %s", got.Status)
	}
	if got.Progress != 0 {
		t.Fatalf("cancelled job made progress: %v", got.Progress)
	}
	if len(synth.calls()) != 0 {
		t.Fatalf("cancelled job reached synthesis")
	}
}

func TestRunMarksJobFailedOnSynthesisError(t *testing.T) {
	synth := &stubSynth{err: errors.New("voice model unavailable")}
	o, store, _ := newTestOrchestrator(t, "", synth)

	job := store.Create(podcast.CreateParams{Title: "Doomed"})
	o.Run(context.Background(), job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.Contains(got.Error, "voice model unavailable") {
		t.Fatalf("error not recorded: %q", got.Error)
	}
	if got.AudioURL != "" {
		t.Fatalf("failed job should have no audio url")
	}
}

func TestRunIsIdempotentOnTerminalJobs(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)

	job := store.Create(podcast.CreateParams{Title: "Once"})
	o.Run(context.Background(), job.ID)
	o.Run(context.Background(), job.ID)

	if len(synth.calls()) != 1 {
		t.Fatalf("terminal job was re-run: %d synthesis calls", len(synth.calls()))
	}
}

func TestNewClampsExcessiveCheckpoints(t *testing.T) {
	synth := &stubSynth{}
	storageDir := t.TempDir()
	store := podcast.NewStore()
	o := New(
		store,
		materials.NewResolver("", "", nil),
		script.NewProducer(nil, nil),
		synth,
		Config{
			StorageDir:         storageDir,
			CheckpointInterval: time.Millisecond,
			ScriptCheckpoints:  12,
		},
		nil,
	)
	if o.cfg.ScriptCheckpoints != 9 {
		t.Fatalf("checkpoints = %d, want 9", o.cfg.ScriptCheckpoints)
	}

	job := store.Create(podcast.CreateParams{Title: "Paced"})
	o.Run(context.Background(), job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusDone {
		t.Fatalf("status = %s, want done (error=%q)", got.Status, got.Error)
	}
	if got.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", got.Progress)
	}
}

func TestScheduleRunsInBackground(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)

	job := store.Create(podcast.CreateParams{Title: "Async"})
	o.Start(context.Background())
	o.Schedule(job.ID)
	o.Wait()

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusDone {
		t.Fatalf("status = %s, want done", got.Status)
	}
}

func TestStopInterruptsScheduledJobs(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)
	o.cfg.CheckpointInterval = time.Hour

	o.Start(context.Background())
	job := store.Create(podcast.CreateParams{Title: "Interrupted"})
	o.Schedule(job.ID)

	o.Stop()

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.Contains(got.Error, "shutdown") {
		t.Fatalf("shutdown reason not recorded: %q", got.Error)
	}
	if len(synth.calls()) != 0 {
		t.Fatalf("synthesis should not run after shutdown")
	}
}

func TestShutdownStopsCheckpointLoop(t *testing.T) {
	synth := &stubSynth{}
	o, store, _ := newTestOrchestrator(t, "", synth)
	o.cfg.CheckpointInterval = time.Hour

	job := store.Create(podcast.CreateParams{Title: "Interrupted"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o.Run(ctx, job.ID)

	got, _ := store.Get(job.ID)
	if got.Status != podcast.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.Contains(got.Error, "shutdown") {
		t.Fatalf("shutdown reason not recorded: %q", got.Error)
	}
	if len(synth.calls()) != 0 {
		t.Fatalf("synthesis should not run after shutdown")
	}
}

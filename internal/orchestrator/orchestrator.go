// Package orchestrator drives queued podcast jobs through the generation
// pipeline: script production, progress checkpoints, speech synthesis, and
// the final done or failed state. Each job runs on its own goroutine; all
// state changes go through the store's guarded transitions, so a cancel
// arriving from the API simply makes the next transition fail and the worker
// stand down.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"podforge/internal/logging"
	"podforge/internal/materials"
	"podforge/internal/podcast"
	"podforge/internal/script"
	"podforge/internal/speech"
)

var errShutdown = errors.New("interrupted by daemon shutdown")

// Config carries the orchestration knobs.
type Config struct {
	// StorageDir is where finished episode audio lands.
	StorageDir string
	// CheckpointInterval is the pause before each script checkpoint.
	CheckpointInterval time.Duration
	// ScriptCheckpoints is the number of progress checkpoints during the
	// script phase; checkpoint i reports progress i/10.
	ScriptCheckpoints int
}

// Orchestrator runs podcast generation jobs.
type Orchestrator struct {
	store    *podcast.Store
	resolver *materials.Resolver
	producer *script.Producer
	synth    speech.Synthesizer
	cfg      Config
	logger   *slog.Logger

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// New builds an orchestrator over the given collaborators.
func New(store *podcast.Store, resolver *materials.Resolver, producer *script.Producer, synth speech.Synthesizer, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 400 * time.Millisecond
	}
	if cfg.ScriptCheckpoints <= 0 {
		cfg.ScriptCheckpoints = 3
	}
	// Checkpoint i reports progress i/10; past 9 the synthesis update at 0.9
	// would read as a progress regression.
	if cfg.ScriptCheckpoints > 9 {
		cfg.ScriptCheckpoints = 9
	}
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		producer: producer,
		synth:    synth,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "orchestrator")),
	}
}

// Start binds orchestration to ctx. Scheduled jobs run on a context derived
// from it, so cancelling ctx interrupts checkpoint sleeps and in-flight
// remote calls; interrupted jobs are marked failed with a shutdown message.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runCtx, o.cancel = context.WithCancel(ctx)
}

// Schedule starts the job on its own goroutine.
func (o *Orchestrator) Schedule(id string) {
	o.mu.Lock()
	ctx := o.runCtx
	o.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Run(ctx, id)
	}()
}

// Stop cancels in-flight jobs and waits for their workers to return.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
}

// Wait blocks until all scheduled jobs have returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Run executes one job to completion. Safe to call on any job ID: unknown
// and already-terminal jobs are skipped, so re-running is idempotent.
func (o *Orchestrator) Run(ctx context.Context, id string) {
	logger := logging.WithJobID(o.logger, id)

	job, err := o.store.Get(id)
	if err != nil {
		logger.Warn("job vanished before start", logging.Error(err))
		return
	}
	if job.Status.Terminal() {
		return
	}

	if err := o.store.Advance(id, func(j *podcast.Job) {
		j.Status = podcast.StatusRunning
	}); err != nil {
		// Cancelled while still queued.
		logger.Info("job not started", logging.Error(err))
		return
	}
	logger.Info("job started", logging.String(logging.FieldEventType, "job_started"))

	for i := 1; i <= o.cfg.ScriptCheckpoints; i++ {
		if !o.sleep(ctx) {
			o.fail(id, errShutdown)
			logger.Info("job interrupted by shutdown")
			return
		}

		job, err = o.store.Get(id)
		if err != nil || job.Status.Terminal() {
			logger.Info("job stopped during script phase")
			return
		}

		generated := job.Script
		if strings.TrimSpace(generated) == "" {
			generated = o.generateScript(ctx, job)
		}

		progress := float64(i) / 10.0
		if err := o.store.Advance(id, func(j *podcast.Job) {
			j.Progress = progress
			j.Script = generated
		}); err != nil {
			logger.Info("job stopped at checkpoint", logging.Error(err))
			return
		}
	}

	if err := o.synthesize(ctx, id); err != nil {
		o.fail(id, err)
		logger.Error("job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.Error(err))
		return
	}

	audioURL := "/media/audio/" + id + ".mp3"
	if err := o.store.Advance(id, func(j *podcast.Job) {
		j.SetDone(audioURL)
	}); err != nil {
		// Cancelled between synthesis and completion. The artifact stays on
		// disk; a later rescan adopts it as a finished episode.
		logger.Info("job cancelled after synthesis", logging.Error(err))
		return
	}
	logger.Info("job done",
		logging.String(logging.FieldEventType, "job_done"),
		logging.String("audio_url", audioURL))
}

// generateScript resolves the job's materials and produces a script. With no
// usable materials it falls back to a stub script naming the source URLs.
func (o *Orchestrator) generateScript(ctx context.Context, job *podcast.Job) string {
	pillar, text := o.resolver.Resolve(job.MaterialsSet)
	if pillar != nil {
		return o.producer.FromPillar(ctx, pillar)
	}
	if strings.TrimSpace(text) != "" {
		return o.producer.FromMaterials(ctx, job.Title, job.Description, text)
	}
	joined := strings.Join(job.SourceURLs, ", ")
	if joined == "" {
		joined = "no sources"
	}
	return fmt.Sprintf("[Auto-script] Podcast '%s'. Sources: %s. This is a demo script — replace with the actual generated content.",
		job.Title, joined)
}

func (o *Orchestrator) synthesize(ctx context.Context, id string) error {
	job, err := o.store.Get(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return errors.New("job stopped before synthesis")
	}

	if err := os.MkdirAll(o.cfg.StorageDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	outputPath := filepath.Join(o.cfg.StorageDir, id+".mp3")

	source := job.Script
	if strings.TrimSpace(source) == "" {
		source = job.Title
	}
	text := speech.CleanForSpeech(source)
	if text == "" {
		text = job.Title
	}

	if err := o.synth.Synthesize(ctx, speech.Request{
		Text:       text,
		Voice:      job.Voice,
		OutputPath: outputPath,
	}); err != nil {
		return err
	}

	return o.store.Advance(id, func(j *podcast.Job) {
		j.Progress = 0.9
	})
}

func (o *Orchestrator) fail(id string, cause error) {
	err := o.store.Advance(id, func(j *podcast.Job) {
		j.SetFailed(cause.Error())
	})
	if err != nil && !errors.Is(err, podcast.ErrTerminal) {
		o.logger.Warn("could not record job failure", logging.Error(err))
	}
}

// sleep pauses for the checkpoint interval, returning false when the context
// is cancelled first.
func (o *Orchestrator) sleep(ctx context.Context) bool {
	timer := time.NewTimer(o.cfg.CheckpointInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

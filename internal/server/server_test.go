package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podforge/internal/materials"
	"podforge/internal/orchestrator"
	"podforge/internal/podcast"
	"podforge/internal/script"
	"podforge/internal/speech"
)

type fileSynth struct{}

func (fileSynth) Synthesize(_ context.Context, req speech.Request) error {
	return os.WriteFile(req.OutputPath, []byte("audio"), 0o644)
}

type fixture struct {
	server     *Server
	store      *podcast.Store
	orch       *orchestrator.Orchestrator
	storageDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithInterval(t, time.Millisecond)
}

func newFixtureWithInterval(t *testing.T, interval time.Duration) *fixture {
	t.Helper()
	storageDir := t.TempDir()
	store := podcast.NewStore()
	orch := orchestrator.New(
		store,
		materials.NewResolver("", "", nil),
		script.NewProducer(nil, nil),
		fileSynth{},
		orchestrator.Config{
			StorageDir:         storageDir,
			CheckpointInterval: interval,
			ScriptCheckpoints:  3,
		},
		nil,
	)
	return &fixture{
		server:     New("127.0.0.1:0", storageDir, store, orch, nil),
		store:      store,
		orch:       orch,
		storageDir: storageDir,
	}
}

func (f *fixture) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateRunsJobToCompletion(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/podcasts", `{"title": "My Episode", "voice": "ava"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[createResponse](t, rec)
	if created.ID == "" {
		t.Fatalf("empty id in response")
	}

	f.orch.Wait()

	job, err := f.store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != podcast.StatusDone {
		t.Fatalf("status = %s, want done (error=%q)", job.Status, job.Error)
	}
	if _, err := os.Stat(filepath.Join(f.storageDir, created.ID+".mp3")); err != nil {
		t.Fatalf("audio artifact missing: %v", err)
	}
}

func TestDaemonShutdownFailsInFlightJob(t *testing.T) {
	f := newFixtureWithInterval(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	f.orch.Start(ctx)

	rec := f.request(t, http.MethodPost, "/podcasts", `{"title": "Interrupted"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[createResponse](t, rec)

	cancel()
	f.orch.Wait()

	job, err := f.store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != podcast.StatusFailed {
		t.Fatalf("status = %s, want failed (error=%q)", job.Status, job.Error)
	}
	if !strings.Contains(job.Error, "shutdown") {
		t.Fatalf("shutdown reason not recorded: %q", job.Error)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{}`, "title is required"},
		{"blank title", `{"title": "   "}`, "title is required"},
		{"long title", `{"title": "` + strings.Repeat("x", 201) + `"}`, "at most 200"},
		{"long description", `{"title": "t", "description": "` + strings.Repeat("d", 2001) + `"}`, "at most 2000"},
		{"bad url scheme", `{"title": "t", "source_urls": ["ftp://example.com/x"]}`, "invalid source url"},
		{"relative url", `{"title": "t", "source_urls": ["not a url"]}`, "invalid source url"},
		{"bad materials set", `{"title": "t", "materials_set": "3"}`, "materials_set"},
		{"malformed json", `{"title":`, "invalid json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.request(t, http.MethodPost, "/podcasts", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("error %q does not mention %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestGetPodcast(t *testing.T) {
	f := newFixture(t)
	job := f.store.Create(podcast.CreateParams{Title: "Lookup", Voice: "ava"})

	rec := f.request(t, http.MethodGet, "/podcasts/"+job.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decode[podcast.Snapshot](t, rec)
	if snap.ID != job.ID || snap.Title != "Lookup" || snap.Status != "queued" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if rec := f.request(t, http.MethodGet, "/podcasts/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing id should 404, got %d", rec.Code)
	}
}

func TestListPodcasts(t *testing.T) {
	f := newFixture(t)
	first := f.store.Create(podcast.CreateParams{Title: "First"})
	second := f.store.Create(podcast.CreateParams{Title: "Second"})
	third := f.store.Create(podcast.CreateParams{Title: "Third"})
	if err := f.store.Advance(second.ID, func(j *podcast.Job) {
		j.Status = podcast.StatusRunning
	}); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	all := decode[listResponse](t, f.request(t, http.MethodGet, "/podcasts", ""))
	if all.Total != 3 || len(all.Items) != 3 {
		t.Fatalf("unexpected list: %+v", all)
	}
	if all.Items[0].ID != first.ID || all.Items[2].ID != third.ID {
		t.Fatalf("insertion order not kept: %+v", all.Items)
	}

	queued := decode[listResponse](t, f.request(t, http.MethodGet, "/podcasts?status=queued", ""))
	if queued.Total != 2 {
		t.Fatalf("status filter broken: %+v", queued)
	}

	page := decode[listResponse](t, f.request(t, http.MethodGet, "/podcasts?limit=1&offset=1", ""))
	if page.Total != 3 || len(page.Items) != 1 || page.Items[0].ID != second.ID {
		t.Fatalf("pagination broken: %+v", page)
	}

	for _, path := range []string{
		"/podcasts?limit=0",
		"/podcasts?limit=101",
		"/podcasts?offset=-1",
		"/podcasts?status=bogus",
	} {
		if rec := f.request(t, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s should 400, got %d", path, rec.Code)
		}
	}
}

func TestDeleteCancelsUnfinishedJob(t *testing.T) {
	f := newFixture(t)
	job := f.store.Create(podcast.CreateParams{Title: "ToCancel"})

	rec := f.request(t, http.MethodDelete, "/podcasts/"+job.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decode[podcast.Snapshot](t, rec)
	if snap.Status != "cancelled" {
		t.Fatalf("snapshot status = %s, want cancelled", snap.Status)
	}
	got, _ := f.store.Get(job.ID)
	if got.Status != podcast.StatusCancelled {
		t.Fatalf("store status = %s, want cancelled", got.Status)
	}
}

func TestDeleteRemovesFinishedJobAndArtifact(t *testing.T) {
	f := newFixture(t)
	job := f.store.Create(podcast.CreateParams{Title: "ToDelete"})
	if err := f.store.Advance(job.ID, func(j *podcast.Job) {
		j.Status = podcast.StatusRunning
	}); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := f.store.Advance(job.ID, func(j *podcast.Job) {
		j.SetDone("/media/audio/" + job.ID + ".mp3")
	}); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	artifact := filepath.Join(f.storageDir, job.ID+".mp3")
	if err := os.WriteFile(artifact, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	rec := f.request(t, http.MethodDelete, "/podcasts/"+job.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := f.store.Get(job.ID); err == nil {
		t.Fatalf("finished job should be removed from store")
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Fatalf("artifact should be removed, stat err = %v", err)
	}
}

func TestDebugDumpExposesScript(t *testing.T) {
	f := newFixture(t)
	job := f.store.Create(podcast.CreateParams{
		Title:        "Debug",
		Script:       "[Host A] Raw script.",
		SourceURLs:   []string{"https://example.com/doc"},
		MaterialsSet: "2",
	})

	rec := f.request(t, http.MethodGet, "/podcasts/_debug/"+job.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	dump := decode[podcast.Dump](t, rec)
	if dump.Script != "[Host A] Raw script." {
		t.Fatalf("script missing from dump: %+v", dump)
	}
	if len(dump.SourceURLs) != 1 || dump.MaterialsSet != "2" {
		t.Fatalf("internal fields missing from dump: %+v", dump)
	}
}

func TestRescanAdoptsOrphanAudio(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.storageDir, "old-episode.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	rec := f.request(t, http.MethodPost, "/podcasts/_rescan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	result := decode[rescanResponse](t, rec)
	if result.Added != 1 || result.Total != 1 {
		t.Fatalf("unexpected rescan result: %+v", result)
	}

	job, err := f.store.Get("old-episode")
	if err != nil {
		t.Fatalf("adopted job missing: %v", err)
	}
	if job.Status != podcast.StatusDone || job.AudioURL != "/media/audio/old-episode.mp3" {
		t.Fatalf("unexpected adopted job: %+v", job)
	}

	again := decode[rescanResponse](t, f.request(t, http.MethodPost, "/podcasts/_rescan", ""))
	if again.Added != 0 || again.Total != 1 {
		t.Fatalf("rescan should be idempotent: %+v", again)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestMediaAudioServesArtifacts(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(filepath.Join(f.storageDir, "ep.mp3"), []byte("audio-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/media/audio/ep.mp3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "audio-bytes" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestMethodChecks(t *testing.T) {
	f := newFixture(t)
	job := f.store.Create(podcast.CreateParams{Title: "Methods"})

	checks := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/podcasts"},
		{http.MethodPost, "/podcasts/" + job.ID},
		{http.MethodGet, "/podcasts/_rescan"},
		{http.MethodDelete, "/podcasts/_debug/" + job.ID},
		{http.MethodPost, "/healthz"},
	}
	for _, tc := range checks {
		if rec := f.request(t, tc.method, tc.path, ""); rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s = %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}

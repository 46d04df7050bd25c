// Package server exposes the job control API: creating, inspecting, listing,
// and cancelling podcast jobs, an on-demand storage rescan, a health probe,
// and static serving of rendered episode audio.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podforge/internal/logging"
	"podforge/internal/orchestrator"
	"podforge/internal/podcast"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	defaultListLimit     = 25
	maxListLimit         = 100
)

// Server serves the podcast job API over HTTP.
type Server struct {
	bind       string
	storageDir string
	store      *podcast.Store
	orch       *orchestrator.Orchestrator
	logger     *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New wires the API handlers over the store and orchestrator. Audio files
// under storageDir are served at /media/audio/.
func New(bind, storageDir string, store *podcast.Store, orch *orchestrator.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:       bind,
		storageDir: storageDir,
		store:      store,
		orch:       orch,
		logger:     logger.With(logging.String(logging.FieldComponent, "server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/podcasts", s.handleCollection)
	mux.HandleFunc("/podcasts/", s.handleItem)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/media/audio/", http.StripPrefix("/media/audio/",
		http.FileServer(http.Dir(storageDir))))

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routing mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving requests. The server shuts down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

type createRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Voice        string   `json:"voice"`
	Script       string   `json:"script"`
	SourceURLs   []string `json:"source_urls"`
	MaterialsSet string   `json:"materials_set"`
}

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	Items []podcast.Snapshot `json:"items"`
	Total int                `json:"total"`
}

type rescanResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	if err := validateCreate(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.store.Create(podcast.CreateParams{
		Title:        req.Title,
		Description:  req.Description,
		Voice:        req.Voice,
		Script:       req.Script,
		SourceURLs:   req.SourceURLs,
		MaterialsSet: req.MaterialsSet,
	})
	s.orch.Schedule(job.ID)

	s.logger.Info("job created",
		logging.String(logging.FieldEventType, "job_created"),
		logging.String(logging.FieldJobID, job.ID))
	s.writeJSON(w, http.StatusAccepted, createResponse{ID: job.ID})
}

func validateCreate(req *createRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return errors.New("title is required")
	}
	if len([]rune(req.Title)) > maxTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxTitleLength)
	}
	if len([]rune(req.Description)) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	for _, raw := range req.SourceURLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("invalid source url: %q", raw)
		}
	}
	switch req.MaterialsSet {
	case "", "1", "2":
	default:
		return fmt.Errorf("materials_set must be \"1\" or \"2\", got %q", req.MaterialsSet)
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultListLimit
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 || value > maxListLimit {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
			return
		}
		limit = value
	}

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			s.writeError(w, http.StatusBadRequest, "offset must be non-negative")
			return
		}
		offset = value
	}

	var status podcast.Status
	if raw := query.Get("status"); raw != "" {
		parsed, ok := podcast.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
		status = parsed
	}

	jobs, total := s.store.List(status, offset, limit)
	items := make([]podcast.Snapshot, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, job.Snapshot())
	}
	s.writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/podcasts/")

	if path == "_rescan" {
		s.handleRescan(w, r)
		return
	}
	if id, ok := strings.CutPrefix(path, "_debug/"); ok {
		s.handleDebug(w, r, id)
		return
	}
	if path == "" || strings.Contains(path, "/") {
		s.writeError(w, http.StatusNotFound, "podcast not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, path)
	case http.MethodDelete:
		s.handleDelete(w, path)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleGet(w http.ResponseWriter, id string) {
	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "podcast not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, id string) {
	job, deleted, err := s.store.DeleteOrCancel(id, s.storageDir)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "podcast not found")
		return
	}
	event := "job_cancelled"
	if deleted {
		event = "job_deleted"
	}
	s.logger.Info("job removed or cancelled",
		logging.String(logging.FieldEventType, event),
		logging.String(logging.FieldJobID, id))
	s.writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "podcast not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job.Dump())
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	added := s.store.Rescan(s.storageDir)
	if added > 0 {
		s.logger.Info("storage rescan adopted episodes", logging.Int("added", added))
	}
	s.writeJSON(w, http.StatusOK, rescanResponse{Added: added, Total: s.store.Len()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// OriginalResponse carries the markup of a passage as loaded
// @Description Original passage markup
type OriginalResponse struct {
	ID       string `json:"id" example:"pt1,passage1"`
	Original string `json:"original" example:"<p>Alpha bravo.</p>"`
}

// RecordsResponse lists the passages with a durable record
// @Description Passages with a durable record
type RecordsResponse struct {
	Documents []string `json:"documents"`
}

// DeletedResponse reports how many records were deleted
// @Description Deleted record count
type DeletedResponse struct {
	Deleted int `json:"deleted" example:"3"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the durable record store and the recovery mirror
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backend is unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.records != nil {
		if err := s.records.Ping(r.Context()); err != nil {
			slog.Warn("record store not ready", "error", err)
			writeError(w, http.StatusServiceUnavailable, "record store unavailable")
			return
		}
	}
	if s.recovery != nil {
		if err := s.recovery.Ping(r.Context()); err != nil {
			slog.Warn("recovery store not ready", "error", err)
			writeError(w, http.StatusServiceUnavailable, "recovery store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Session endpoints

// handleStartSession godoc
// @Summary      Start a session
// @Description  Opens an empty test-taking session and returns its token
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  domain.SessionStarted
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /sessions [post]
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	started, err := s.sessionService.Start(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// handleResumeSession godoc
// @Summary      Resume a session
// @Description  Re-attaches to a session, rebuilding it from its recovery mirror if needed
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.SessionStarted
// @Failure      404  {object}  ErrorResponse  "No recoverable session"
// @Failure      409  {object}  ErrorResponse  "Session held by another instance"
// @Router       /sessions/{id}/resume [post]
func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	started, err := s.sessionService.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

// handleGetSession godoc
// @Summary      Get current session
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SessionInfo
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /session [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessionService.Get(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSetSubject godoc
// @Summary      Set displayed subject
// @Description  Records the content type on screen; annotations are only accepted for enabled subjects
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.SubjectRequest  true  "Subject"
// @Success      200      {object}  domain.SessionInfo
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Router       /session/subject [put]
func (s *Server) handleSetSubject(w http.ResponseWriter, r *http.Request) {
	var req domain.SubjectRequest
	if !s.decode(w, r, &req) {
		return
	}

	info, err := s.sessionService.SetSubject(r.Context(), GetSessionID(r.Context()), req.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleResetSession godoc
// @Summary      Start a new test
// @Description  Clears every passage and binding of the session. The emptied session replaces its recovery mirror on the next sweep. Durable records are kept.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /session/reset [post]
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Reset(r.Context(), GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleEndSession godoc
// @Summary      End the session
// @Tags         Sessions
// @Security     BearerAuth
// @Success      204
// @Router       /session [delete]
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.End(r.Context(), GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Consumer endpoints

// handleBindConsumer godoc
// @Summary      Bind an item to a passage
// @Description  Binds a consumer to a passage, loads the passage and makes it the active document
// @Tags         Consumers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.BindRequest  true  "Binding"
// @Success      200      {object}  domain.DocumentView
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      409      {object}  ErrorResponse  "Consumer bound to another passage"
// @Router       /consumers [post]
func (s *Server) handleBindConsumer(w http.ResponseWriter, r *http.Request) {
	var req domain.BindRequest
	if !s.decode(w, r, &req) {
		return
	}

	view, err := s.annotationService.Bind(r.Context(), GetSessionID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleResolveConsumer godoc
// @Summary      Get the passage of an item
// @Tags         Consumers
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "Consumer key (subject-test-item)"
// @Success      200  {object}  domain.DocumentView
// @Failure      404  {object}  ErrorResponse  "Consumer not bound"
// @Router       /consumers/{key} [get]
func (s *Server) handleResolveConsumer(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseConsumerKey(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consumer key")
		return
	}

	view, err := s.annotationService.Resolve(r.Context(), GetSessionID(r.Context()), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Document endpoints

// handleGetDocument godoc
// @Summary      Get a passage
// @Description  Returns the annotated markup and paragraphs of a passage
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID (testPartId,passageId)"
// @Success      200  {object}  domain.DocumentView
// @Failure      404  {object}  ErrorResponse  "Passage not loaded"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	view, err := s.annotationService.Document(r.Context(), GetSessionID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetOriginal godoc
// @Summary      Get original markup
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  OriginalResponse
// @Failure      404  {object}  ErrorResponse  "Passage not loaded"
// @Router       /documents/{id}/original [get]
func (s *Server) handleGetOriginal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	original, err := s.annotationService.Original(r.Context(), GetSessionID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if original == "" {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, OriginalResponse{ID: id, Original: original})
}

// handleListSpans godoc
// @Summary      List annotation spans
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   domain.SpanView
// @Failure      404  {object}  ErrorResponse  "Passage not loaded"
// @Router       /documents/{id}/spans [get]
func (s *Server) handleListSpans(w http.ResponseWriter, r *http.Request) {
	spans, err := s.annotationService.Spans(r.Context(), GetSessionID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if spans == nil {
		spans = []domain.SpanView{}
	}
	writeJSON(w, http.StatusOK, spans)
}

// handleCreateAnnotation godoc
// @Summary      Highlight a selection
// @Description  Wraps a selection, given as text offsets or host points, in an annotation span
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Document ID"
// @Param        request  body      domain.HighlightRequest  true  "Selection and style"
// @Success      201      {object}  domain.AnnotationResult
// @Failure      400      {object}  ErrorResponse  "Invalid selection"
// @Failure      403      {object}  ErrorResponse  "Annotations disabled for subject"
// @Failure      404      {object}  ErrorResponse  "Passage not loaded"
// @Router       /documents/{id}/annotations [post]
func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req domain.HighlightRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.annotationService.Highlight(r.Context(), GetSessionID(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleActivateSpan godoc
// @Summary      Deliver a gesture on a span
// @Description  double_activate removes the span, secondary_activate toggles strikethrough
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Document ID"
// @Param        request  body      domain.ActivateRequest  true  "Span path and gesture"
// @Success      200      {object}  domain.AnnotationResult
// @Failure      400      {object}  ErrorResponse  "Not an annotation span"
// @Router       /documents/{id}/spans/activate [post]
func (s *Server) handleActivateSpan(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivateRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.annotationService.Activate(r.Context(), GetSessionID(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleToggleStrike godoc
// @Summary      Toggle strikethrough
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Document ID"
// @Param        request  body      domain.SpanRequest  true  "Span path"
// @Success      200      {object}  domain.AnnotationResult
// @Failure      400      {object}  ErrorResponse  "Not an annotation span"
// @Router       /documents/{id}/spans/strike [post]
func (s *Server) handleToggleStrike(w http.ResponseWriter, r *http.Request) {
	var req domain.SpanRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.annotationService.ToggleStrike(r.Context(), GetSessionID(r.Context()), r.PathValue("id"), req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRemoveSpan godoc
// @Summary      Remove an annotation span
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Document ID"
// @Param        path  query     string  true  "Span path (dot-separated child indices)"
// @Success      200   {object}  domain.AnnotationResult
// @Failure      400   {object}  ErrorResponse  "Not an annotation span"
// @Router       /documents/{id}/spans [delete]
func (s *Server) handleRemoveSpan(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	result, err := s.annotationService.RemoveAnnotation(r.Context(), GetSessionID(r.Context()), r.PathValue("id"), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleClearDocument godoc
// @Summary      Clear a passage
// @Description  Drops every annotation span of a passage. Nothing is written until the next commit.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentView
// @Router       /documents/{id}/clear [post]
func (s *Server) handleClearDocument(w http.ResponseWriter, r *http.Request) {
	view, err := s.annotationService.Clear(r.Context(), GetSessionID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Persistence endpoints

// handleCommit godoc
// @Summary      Commit annotations
// @Description  Writes every passage of the session to durable storage. With wait=true the response carries the outcome.
// @Tags         Persistence
// @Produce      json
// @Security     BearerAuth
// @Param        wait  query     bool  false  "Wait for the commit to finish"
// @Success      200   {object}  domain.CommitResult
// @Success      202   {object}  StatusResponse
// @Router       /commit [post]
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	task, err := s.persistenceService.Commit(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
		return
	}

	result, err := task.Wait(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExport godoc
// @Summary      Export annotations
// @Description  Returns a deep copy of every passage of the session
// @Tags         Persistence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Snapshot
// @Router       /export [get]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.persistenceService.Export(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleImport godoc
// @Summary      Import annotations
// @Description  Merges a snapshot into the session and writes the imported records
// @Tags         Persistence
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.Snapshot  true  "Snapshot"
// @Success      200      {object}  domain.ImportResult
// @Failure      400      {object}  ErrorResponse  "Invalid snapshot"
// @Router       /import [post]
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.persistenceService.Import(r.Context(), GetSessionID(r.Context()), snapshot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListRecords godoc
// @Summary      List durable records
// @Tags         Persistence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RecordsResponse
// @Router       /records [get]
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ids, err := s.persistenceService.Records(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, RecordsResponse{Documents: ids})
}

// handleGetRecord godoc
// @Summary      Get a durable record
// @Tags         Persistence
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.PersistedRecord
// @Failure      404  {object}  ErrorResponse  "No record"
// @Router       /records/{id} [get]
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.persistenceService.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteRecord godoc
// @Summary      Delete a durable record
// @Tags         Persistence
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Router       /records/{id} [delete]
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.persistenceService.ClearRecord(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteRecords godoc
// @Summary      Delete every durable record
// @Tags         Persistence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DeletedResponse
// @Router       /records [delete]
func (s *Server) handleDeleteRecords(w http.ResponseWriter, r *http.Request) {
	n, err := s.persistenceService.ClearRecords(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// decode reads and validates a JSON body, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// errorStatus maps domain errors to HTTP status codes
var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrInvalidRange, http.StatusBadRequest},
	{domain.ErrCollapsedSelection, http.StatusBadRequest},
	{domain.ErrOutsideContainer, http.StatusBadRequest},
	{domain.ErrNotAnnotation, http.StatusBadRequest},
	{domain.ErrFeatureDisabled, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrSessionNotFound, http.StatusNotFound},
	{domain.ErrStaleRange, http.StatusConflict},
	{domain.ErrAlreadyBound, http.StatusConflict},
	{domain.ErrSessionLocked, http.StatusConflict},
	{domain.ErrTokenExpired, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized},
}

func writeServiceError(w http.ResponseWriter, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.err.Error())
			return
		}
	}
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

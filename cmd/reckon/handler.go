package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/reckon"
	"github.com/m-mizutani/reckon/trace"
)

const maxRequestBodySize = 64 << 10

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Greeting  string    `json:"greeting"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.create()
	if errors.Is(err, errSessionLimit) {
		slog.Warn("session limit reached", slog.Any("error", err))
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
		return
	}
	if err != nil {
		slog.Error("failed to create session", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.id,
		Greeting:  greeting,
		CreatedAt: sess.createdAt,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer     string        `json:"answer"`
	Steps      []reckon.Step `json:"steps"`
	Iterations int           `json:"iterations"`
	Completed  bool          `json:"completed"`
	Error      string        `json:"error,omitempty"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sess.mu.Lock()
	result, err := sess.agent.Run(r.Context(), req.Question)
	sess.mu.Unlock()

	if errors.Is(err, reckon.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if result == nil {
		slog.Error("failed to run agent", slog.Any("error", err), slog.String("session_id", sess.id))
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	steps := result.Steps
	if steps == nil {
		steps = []reckon.Step{}
	}
	resp := askResponse{
		Answer:     result.Answer,
		Steps:      steps,
		Iterations: result.Iterations,
		Completed:  result.Completed,
	}

	status := http.StatusOK
	if err != nil {
		// A degraded answer is still returned together with the failure.
		slog.Warn("run ended with error", slog.Any("error", err), slog.String("session_id", sess.id))
		resp.Error = "reasoning engine failed"
		status = http.StatusBadGateway
		if errors.Is(err, r.Context().Err()) {
			resp.Error = "request canceled"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

type transcriptResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []reckon.Turn `json:"turns"`
}

func (s *server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	turns := sess.agent.Transcript().All()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, transcriptResponse{SessionID: sess.id, Turns: turns})
}

type listTracesResponse struct {
	Traces []trace.Summary `json:"traces"`
}

// handleListTraces lists stored traces, newest first.
func (s *server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	traces, err := s.traces.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list traces", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list traces")
		return
	}

	writeJSON(w, http.StatusOK, listTracesResponse{Traces: traces})
}

func (s *server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")
	if _, err := uuid.Parse(traceID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trace ID")
		return
	}

	t, err := s.traces.Get(r.Context(), traceID)
	if err != nil {
		if errors.Is(err, trace.ErrTraceNotFound) {
			writeError(w, http.StatusNotFound, "trace not found")
			return
		}
		slog.Error("failed to get trace", slog.Any("error", err), slog.String("trace_id", traceID))
		writeError(w, http.StatusInternalServerError, "failed to read trace")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/docmind/docmind/pkg/reasoning"
)

// predictRequest is the body of POST /predict.
type predictRequest struct {
	Question string                  `json:"question"`
	Memory   []reasoning.MemoryEntry `json:"memory"`
}

// predictResponse is the envelope every /predict reply uses. Failures still
// carry a data payload so callers always have an answer string to show.
type predictResponse struct {
	Data  *reasoning.Answer `json:"data"`
	Error *string           `json:"error"`
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeFailure(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.orchestrator.Process(r.Context(), req.Question, req.Memory)
	if err != nil {
		slog.Error("predict failed", "error", err)
		writeFailure(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	answersTotal.WithLabelValues(outcomeLabel(answer)).Inc()
	writeJSON(w, http.StatusOK, predictResponse{Data: answer})
}

func outcomeLabel(a *reasoning.Answer) string {
	if len(a.URLSupporting) == 0 {
		return "uncited"
	}
	return "cited"
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	answersTotal.WithLabelValues("error").Inc()
	writeJSON(w, status, predictResponse{
		Data: &reasoning.Answer{
			Text:          message,
			URLSupporting: []string{},
		},
		Error: &message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

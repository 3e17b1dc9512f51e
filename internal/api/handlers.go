package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/runner"
	"github.com/thinky-dev/thinky/internal/store"
)

type runRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type runResponse struct {
	RunID    string `json:"run_id"`
	Message  string `json:"message"`
	Model    string `json:"model"`
	Response string `json:"response"`
}

type toolItem struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	MetaData    map[string]any `json:"meta_data,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.IDs())
}

func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	a, err := s.registry.Get(id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	res, err := s.runner.Run(r.Context(), a, req.Message, runner.Options{
		Model:     req.Model,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	model := req.Model
	if model == "" {
		model = res.Model
	}
	s.writeJSON(w, http.StatusOK, runResponse{
		RunID:    res.RunID,
		Message:  req.Message,
		Model:    model,
		Response: res.Output,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.registry.Has(id) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", registry.ErrUnknownAgent, id))
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.runs.ListByAgent(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []store.AgentRun{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleListTools lists the tools of every registered agent, each name once.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	verbose, _ := strconv.ParseBool(r.URL.Query().Get("verbose"))

	seen := make(map[string]bool)
	items := []toolItem{}
	for _, id := range s.registry.IDs() {
		a, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		for _, t := range a.Tools {
			if seen[t.Name()] {
				continue
			}
			seen[t.Name()] = true
			item := toolItem{Name: t.Name(), Description: t.Description()}
			if verbose {
				item.MetaData = t.InputSchema()
			}
			items = append(items, item)
		}
	}
	s.writeJSON(w, http.StatusOK, items)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrUnknownAgent),
		errors.Is(err, runner.ErrNoResponse),
		errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hassbridge/hassbridge-core/internal/audit"
	"github.com/hassbridge/hassbridge-core/internal/command"
)

// commandView is the JSON shape of a command in the inventory.
//
// Suggestion and transform bindings are runtime behaviour and cannot be
// serialized; Dynamic marks parameters that carry a suggestion provider.
type commandView struct {
	Qualified   string          `json:"qualified"`
	Namespace   string          `json:"namespace"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []parameterView `json:"parameters"`
}

type parameterView struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Kind        string           `json:"kind"`
	Required    bool             `json:"required"`
	Default     any              `json:"default,omitempty"`
	Min         *float64         `json:"min,omitempty"`
	Max         *float64         `json:"max,omitempty"`
	Choices     []command.Choice `json:"choices,omitempty"`
	Dynamic     bool             `json:"dynamic"`
}

func viewOf(def command.Definition) commandView {
	params := make([]parameterView, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		params = append(params, parameterView{
			Name:        p.Name,
			Description: p.Description,
			Kind:        string(p.Kind),
			Required:    p.Required,
			Default:     p.Default,
			Min:         p.Min,
			Max:         p.Max,
			Choices:     p.Choices,
			Dynamic:     p.Suggest != nil,
		})
	}
	return commandView{
		Qualified:   def.QualifiedName(),
		Namespace:   def.Namespace,
		Name:        def.Name,
		Description: def.Description,
		Parameters:  params,
	}
}

// handleListCommands returns the synthesized command inventory.
func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	views := make([]commandView, 0, len(s.commands))
	for _, def := range s.commands {
		views = append(views, viewOf(def))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"commands": views,
		"total":    len(views),
	})
}

// handleGetCommand returns a single command by qualified name.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	qualified := chi.URLParam(r, "qualified")
	for _, def := range s.commands {
		if def.QualifiedName() == qualified {
			writeJSON(w, http.StatusOK, viewOf(def))
			return
		}
	}
	writeNotFound(w, "unknown command "+qualified)
}

// handleCacheStatus reports which collection snapshots are currently held.
func (s *Server) handleCacheStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.cache.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"cached_keys": status.CachedKeys,
		"ttl_seconds": int(status.TTL / time.Second),
	})
}

// handleCacheInvalidate drops all cached snapshots so the next read refetches.
func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	s.cache.Invalidate()
	s.logger.Info("snapshot cache invalidated",
		"subject", r.Context().Value(ctxKeySubject))
	writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated"})
}

// handleListUsage returns usage log records matching the query filters.
func (s *Server) handleListUsage(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeNotFound(w, "usage log not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Command:    q.Get("command"),
		UserID:     q.Get("user_id"),
		FailedOnly: q.Get("failed") == "true",
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "invalid since timestamp, want RFC 3339")
			return
		}
		filter.Since = ts
	}

	result, err := s.auditLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing usage log failed", "error", err)
		writeInternalError(w, "failed to list usage log")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetUsage returns a single usage record.
func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		writeNotFound(w, "usage log not configured")
		return
	}

	id := chi.URLParam(r, "id")
	entry, err := s.auditLog.Get(r.Context(), id)
	switch {
	case errors.Is(err, audit.ErrNotFound):
		writeNotFound(w, "unknown usage record "+id)
	case err != nil:
		s.logger.Error("loading usage record failed", "error", err, "id", id)
		writeInternalError(w, "failed to load usage record")
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

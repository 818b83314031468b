package http

import (
	"io"
	"net/http"
	"net/url"

	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
)

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type userRequest struct {
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
}

type groupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c := core.Category{
		Name: sanitizeInput(req.Name),
		Kind: core.TransactionType(sanitizeInput(req.Kind)),
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.AddCategory(r.Context(), userID(r), c); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleDeleteCategory removes a category; the store reassigns its
// transactions to the fallback category in the same operation. The
// fallback itself cannot be deleted.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(r.PathValue("name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "invalid category name")
		return
	}
	if name == core.OtherCategory {
		writeError(w, http.StatusBadRequest, "the fallback category cannot be deleted")
		return
	}

	if err := s.store.DeleteCategory(r.Context(), userID(r), name); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkAlertRead(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := s.store.ListAchievements(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievements)
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.store.ListInsights(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// handleExportState streams the whole application state as one JSON
// blob, across all users.
func (s *Server) handleExportState(w http.ResponseWriter, r *http.Request) {
	blob, err := s.store.ExportState(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "state export failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="moneygrowth.json"`)
	_, _ = w.Write(blob)
}

// handleImportState overwrites everything with the posted blob. There
// is no merge; this mirrors export exactly.
func (s *Server) handleImportState(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}

	if err := s.store.ImportState(r.Context(), blob); err != nil {
		s.logger.ErrorContext(r.Context(), "state import failed", applog.FieldError, err)
		writeError(w, http.StatusBadRequest, "import failed: "+err.Error())
		return
	}

	// Everything may have changed; cached overviews are all stale.
	s.monthCache.Clear()
	s.yearCache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u := core.User{
		Name:    sanitizeInput(req.Name),
		GroupID: sanitizeInput(req.GroupID),
	}
	if err := u.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddUser(r.Context(), u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	u.ID = id
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g := core.Group{
		Name:    sanitizeInput(req.Name),
		Members: req.Members,
	}
	if err := g.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddGroup(r.Context(), g)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	g.ID = id
	writeJSON(w, http.StatusCreated, g)
}

package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/estates/internal/core"
)

// handleGetBuilding returns one hydrated building.
func (s *Server) handleGetBuilding(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	building, err := s.buildings.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, building)
}

// handleSearchBuildings filters and paginates buildings.
func (s *Server) handleSearchBuildings(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.buildings.Search(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleCreateBuilding creates a building with its associations.
func (s *Server) handleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	var in core.BuildingCreate
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := validateStruct(in); err != nil {
		s.respondError(w, r, err)
		return
	}

	building, err := s.buildings.Create(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/buildings/%d", building.ID))
	writeJSON(w, r, http.StatusCreated, building)
}

// handleUpdateBuilding applies the fields present in the body.
func (s *Server) handleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var in core.BuildingUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	building, err := s.buildings.Update(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, building)
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Dregen-Yor/auto-invoice/internal/common"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

type personRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

func validatePerson(req personRequest) error {
	return common.NewValidator().
		Field("name", req.Name, common.Required, common.MaxLength(100)).
		Field("number", req.Number, common.MaxLength(50)).
		Error()
}

func (s *Server) handleListPeople(w http.ResponseWriter, _ *http.Request) {
	people := s.store.ListPeople()
	if people == nil {
		people = []entity.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validatePerson(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	person, err := s.store.CreatePerson(req.Name, req.Number)
	if err != nil {
		s.logger.Error("create person failed", "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid person id")
		return
	}
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validatePerson(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	person, err := s.store.UpdatePerson(id, req.Name, req.Number)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid person id")
		return
	}
	if err := s.store.DeletePerson(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

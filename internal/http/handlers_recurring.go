package http

import (
	"net/http"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	rules, err := s.service.ListRecurringRules(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]recurringResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRecurringResponse(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rule, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	userID := s.userID(r)
	created, err := s.service.CreateRecurringRule(r.Context(), userID, rule)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toRecurringResponse(created))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rule, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	rule.ID = r.PathValue("id")

	userID := s.userID(r)
	updated, err := s.service.UpdateRecurringRule(r.Context(), userID, rule)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toRecurringResponse(updated))
}

type toggleRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleToggleRecurring(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	userID := s.userID(r)
	if err := s.service.SetRecurringRuleActive(r.Context(), userID, r.PathValue("id"), req.Active); err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	if err := s.service.DeleteRecurringRule(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

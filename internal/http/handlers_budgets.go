package http

import (
	"net/http"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.service.ListBudgets(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	budget, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	userID := s.userID(r)
	created, err := s.service.CreateBudget(r.Context(), userID, budget)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	budget, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	budget.ID = r.PathValue("id")

	userID := s.userID(r)
	updated, err := s.service.UpdateBudget(r.Context(), userID, budget)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	if err := s.service.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

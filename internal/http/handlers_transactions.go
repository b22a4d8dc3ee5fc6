package http

import (
	"net/http"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.service.ListTransactions(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.service.GetTransaction(r.Context(), s.userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	tx, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	userID := s.userID(r)
	created, err := s.service.CreateTransaction(r.Context(), userID, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	tx, err := req.toDomain()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	tx.ID = r.PathValue("id")

	userID := s.userID(r)
	updated, err := s.service.UpdateTransaction(r.Context(), userID, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	if err := s.service.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

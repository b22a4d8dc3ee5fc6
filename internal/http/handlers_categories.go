package http

import (
	"net/http"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.ListCategories(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	userID := s.userID(r)
	created, err := s.service.CreateCategory(r.Context(), userID, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	cat := req.toDomain()
	cat.ID = r.PathValue("id")

	userID := s.userID(r)
	updated, err := s.service.UpdateCategory(r.Context(), userID, cat)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	if err := s.service.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.InvalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

package httpserver

import "net/http"

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, viewUser(user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryPage(r)
	users, total, err := h.users.List(r.Context(), page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, page, total, viewUsers(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewUser(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Update(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewUser(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpserver

import "net/http"

type todoListRequest struct {
	Title string `json:"title"`
}

func (h *Handler) CreateTodoList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	var req todoListRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	list, err := h.lists.Create(r.Context(), userID, req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, viewTodoList(list))
}

func (h *Handler) ListTodoLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}

	page := queryPage(r)
	lists, total, err := h.lists.List(r.Context(), userID, page, queryBool(r, "withTodos"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, page, total, viewTodoLists(lists))
}

func (h *Handler) GetTodoList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	listID, ok := pathUUID(r, "todoListID")
	if !ok {
		respondBadRequest(w, "invalid todo list id")
		return
	}

	list, err := h.lists.Get(r.Context(), userID, listID, queryBool(r, "withTodos"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewTodoList(list))
}

func (h *Handler) UpdateTodoList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	listID, ok := pathUUID(r, "todoListID")
	if !ok {
		respondBadRequest(w, "invalid todo list id")
		return
	}
	var req todoListRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	list, err := h.lists.Update(r.Context(), userID, listID, req.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewTodoList(list))
}

func (h *Handler) DeleteTodoList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	listID, ok := pathUUID(r, "todoListID")
	if !ok {
		respondBadRequest(w, "invalid todo list id")
		return
	}

	if err := h.lists.Delete(r.Context(), userID, listID, queryBool(r, "withTodos")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// resyncTimeout bounds the detached reconciliation pass kicked off after an
// account link.
const resyncTimeout = 5 * time.Minute

// oauthState rides through the consent redirect so the callback knows which
// local user initiated the link.
type oauthState struct {
	UserID uuid.UUID `json:"userId"`
}

// MicrosoftSignin redirects the browser to the Microsoft consent URL.
func (h *Handler) MicrosoftSignin(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return
	}
	if _, err := h.users.Get(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}

	state, err := json.Marshal(oauthState{UserID: userID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	http.Redirect(w, r, h.graph.AuthCodeURL(string(state)), http.StatusFound)
}

// MicrosoftCallback redeems the authorization code, links the verified remote
// account to the local user and kicks off a detached reconciliation pass. The
// pass does not block the response; its failures only reach the log.
func (h *Handler) MicrosoftCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		h.log.Warn().
			Str("error", errCode).
			Str("description", q.Get("error_description")).
			Msg("microsoft consent denied")
		respondBadRequest(w, "consent was not granted")
		return
	}

	code := q.Get("code")
	if code == "" {
		respondBadRequest(w, "missing authorization code")
		return
	}
	var state oauthState
	if err := json.Unmarshal([]byte(q.Get("state")), &state); err != nil || state.UserID == uuid.Nil {
		respondBadRequest(w, "invalid state")
		return
	}

	accountID, err := h.graph.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.LinkMicrosoftAccount(r.Context(), state.UserID, accountID); err != nil {
		respondError(w, r, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
		defer cancel()
		if err := h.syncer.Resync(ctx, state.UserID); err != nil {
			h.log.Error().Err(err).
				Str("user_id", state.UserID.String()).
				Msg("post-link resync failed")
		}
	}()

	respondData(w, http.StatusOK, map[string]any{
		"userId": state.UserID,
		"status": "linked",
	})
}

// clientForUser resolves the caller's linked Graph client, writing the error
// response itself when there is none.
func (h *Handler) clientForUser(w http.ResponseWriter, r *http.Request) (GraphClient, bool) {
	userID, ok := pathUUID(r, "userID")
	if !ok {
		respondBadRequest(w, "invalid user id")
		return nil, false
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	if user.MicrosoftUserID == nil {
		respondBadRequest(w, "microsoft account not linked")
		return nil, false
	}
	return h.graph.ClientFor(r.Context(), *user.MicrosoftUserID), true
}

// MicrosoftMe proxies the Graph profile of the linked account.
func (h *Handler) MicrosoftMe(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientForUser(w, r)
	if !ok {
		return
	}
	profile, err := client.Me(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, profile)
}

// MicrosoftTaskLists proxies the raw remote task lists.
func (h *Handler) MicrosoftTaskLists(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientForUser(w, r)
	if !ok {
		return
	}
	lists, err := client.ListLists(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, lists)
}

// MicrosoftTasks proxies the tasks of one remote list.
func (h *Handler) MicrosoftTasks(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientForUser(w, r)
	if !ok {
		return
	}
	tasks, err := client.ListTasks(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, tasks)
}

// MicrosoftAll proxies every remote list with its tasks.
func (h *Handler) MicrosoftAll(w http.ResponseWriter, r *http.Request) {
	client, ok := h.clientForUser(w, r)
	if !ok {
		return
	}
	all, err := client.ListAllListsAndTasks(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, all)
}

// MicrosoftNotifications answers Graph webhook traffic. Subscription
// validation echoes the token back in plain text; change notifications are
// acknowledged and logged only.
func (h *Handler) MicrosoftNotifications(w http.ResponseWriter, r *http.Request) {
	if token := r.URL.Query().Get("validationToken"); token != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(token))
		return
	}

	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		h.log.Info().RawJSON("payload", payload).Msg("graph notification received")
	}
	w.WriteHeader(http.StatusAccepted)
}

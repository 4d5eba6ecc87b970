package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/auth"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 16

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrMalformedInput)
	}
	return nil
}

func caller(r *http.Request) *models.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// pageParams reads status, limit and offset from the query string. Missing
// numbers are zero and left to the service defaults.
func pageParams(r *http.Request) (string, int, int, error) {
	q := r.URL.Query()

	num := func(key string) (int, error) {
		v := q.Get(key)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", common.ErrMalformedInput, key)
		}
		return n, nil
	}

	limit, err := num("limit")
	if err != nil {
		return "", 0, 0, err
	}
	offset, err := num("offset")
	if err != nil {
		return "", 0, 0, err
	}
	return q.Get("status"), limit, offset, nil
}

func (s *HTTPServer) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.PingResponse{Status: "OK"})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, "login", err)
		return
	}

	session, err := s.auth.Authenticate(r.Context(), req.Username, req.Password, req.OTPCode)
	if err != nil {
		s.logger.Info(r.Context(), "Login rejected", "username", req.Username)
		s.writeServiceError(w, r, "login", err)
		return
	}

	s.logger.Info(r.Context(), "Logged in", "username", session.UserName)
	writeJSON(w, http.StatusOK, api.FromSession(session))
}

func (s *HTTPServer) verifyToken(w http.ResponseWriter, r *http.Request) {
	id := caller(r)
	if id == nil {
		s.writeServiceError(w, r, "verify token", common.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, api.FromIdentity(id))
}

func (s *HTTPServer) sendRequest(w http.ResponseWriter, r *http.Request) {
	var req api.SendFriendRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, "send request", err)
		return
	}

	fr, err := s.rel.SendRequest(r.Context(), caller(r), req.Username, req.Message)
	if err != nil {
		s.writeServiceError(w, r, "send request", err)
		return
	}

	writeJSON(w, http.StatusCreated, api.FromFriendRequest(fr))
}

func (s *HTTPServer) respondRequest(w http.ResponseWriter, r *http.Request) {
	var req api.RespondFriendRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, "respond request", err)
		return
	}

	t, err := s.rel.RespondRequest(r.Context(), caller(r), req.Username, req.Action)
	if err != nil {
		s.writeServiceError(w, r, "respond request", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromTransition(t))
}

func (s *HTTPServer) listRequests(w http.ResponseWriter, r *http.Request) {
	status, limit, offset, err := pageParams(r)
	if err != nil {
		s.writeServiceError(w, r, "list requests", err)
		return
	}

	page, err := s.rel.ListRequests(r.Context(), caller(r), status, limit, offset)
	if err != nil {
		s.writeServiceError(w, r, "list requests", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromRequestPage(page))
}

func (s *HTTPServer) listSentRequests(w http.ResponseWriter, r *http.Request) {
	status, limit, offset, err := pageParams(r)
	if err != nil {
		s.writeServiceError(w, r, "list sent requests", err)
		return
	}

	page, err := s.rel.ListSentRequests(r.Context(), caller(r), status, limit, offset)
	if err != nil {
		s.writeServiceError(w, r, "list sent requests", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromRequestPage(page))
}

func (s *HTTPServer) getRequest(w http.ResponseWriter, r *http.Request) {
	fr, err := s.rel.GetRequest(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, "get request", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromFriendRequest(fr))
}

func (s *HTTPServer) requestStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rel.RequestStats(r.Context(), caller(r))
	if err != nil {
		s.writeServiceError(w, r, "request stats", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromRequestStats(stats))
}

func (s *HTTPServer) listFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.rel.ListFriendships(r.Context(), caller(r))
	if err != nil {
		s.writeServiceError(w, r, "list friends", err)
		return
	}

	writeJSON(w, http.StatusOK, api.FromFriends(friends))
}

func (s *HTTPServer) checkFriendship(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["username"]

	ok, err := s.rel.CheckFriendship(r.Context(), caller(r), name)
	if err != nil {
		s.writeServiceError(w, r, "check friendship", err)
		return
	}

	writeJSON(w, http.StatusOK, api.CheckFriendshipResponse{Username: name, AreFriends: ok})
}

func (s *HTTPServer) removeFriend(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["username"]
	id := caller(r)

	removed, err := s.rel.Unfriend(r.Context(), id, name)
	if err != nil {
		s.writeServiceError(w, r, "remove friend", err)
		return
	}

	if removed {
		s.logger.Info(r.Context(), "Friendship removed", "user_id", id.UserID, "friend", name)
	}
	writeJSON(w, http.StatusOK, api.RemoveFriendResponse{Username: name, Removed: removed})
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophfriends/internal/api"
	"github.com/dmitrijs2005/gophfriends/internal/common"
)

// retryAfterSeconds is advertised with every 503.
const retryAfterSeconds = "5"

// errorStatuses maps domain errors to HTTP statuses. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{common.ErrMalformedInput, http.StatusBadRequest},
	{common.ErrSelfRequest, http.StatusBadRequest},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrMalformedAuthHeader, http.StatusUnauthorized},
	{common.ErrUserNotFound, http.StatusNotFound},
	{common.ErrRequestNotFound, http.StatusNotFound},
	{common.ErrAlreadyFriends, http.StatusConflict},
	{common.ErrRequestPending, http.StatusConflict},
	{common.ErrRequestPreviouslyRejected, http.StatusConflict},
	{common.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

// writeServiceError renders err with its mapped status. Both login factor
// failures read the same.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, common.ErrInvalidCredentials) || errors.Is(err, common.ErrInvalidOrExpiredCode) {
		writeError(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
		return
	}

	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}
		switch e.status {
		case http.StatusUnauthorized:
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		case http.StatusServiceUnavailable:
			s.logger.Error(r.Context(), "store unavailable", "op", op, "error", err)
			w.Header().Set("Retry-After", retryAfterSeconds)
			writeError(w, e.status, common.ErrStoreUnavailable.Error())
			return
		case http.StatusGatewayTimeout:
			writeError(w, e.status, "request timed out")
			return
		}
		writeError(w, e.status, err.Error())
		return
	}

	s.logger.Error(r.Context(), "unexpected error", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorCodes maps domain errors to gRPC codes. Order matters: the first
// match wins.
var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrMalformedInput, codes.InvalidArgument},
	{common.ErrSelfRequest, codes.InvalidArgument},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrMalformedAuthHeader, codes.Unauthenticated},
	{common.ErrUserNotFound, codes.NotFound},
	{common.ErrRequestNotFound, codes.NotFound},
	{common.ErrAlreadyFriends, codes.AlreadyExists},
	{common.ErrRequestPending, codes.AlreadyExists},
	{common.ErrRequestPreviouslyRejected, codes.FailedPrecondition},
	{common.ErrStoreUnavailable, codes.Unavailable},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
	{context.Canceled, codes.Canceled},
}

// toStatus converts a service error into a gRPC status error. Both login
// factor failures read the same.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrInvalidCredentials) || errors.Is(err, common.ErrInvalidOrExpiredCode) {
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	}

	for _, e := range errorCodes {
		if !errors.Is(err, e.err) {
			continue
		}
		switch e.code {
		case codes.Unavailable:
			s.logger.Error(ctx, "store unavailable", "op", op, "error", err)
			return status.Error(e.code, common.ErrStoreUnavailable.Error())
		case codes.DeadlineExceeded, codes.Canceled:
			return status.Error(e.code, e.err.Error())
		}
		return status.Error(e.code, err.Error())
	}

	s.logger.Error(ctx, "unexpected error", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}

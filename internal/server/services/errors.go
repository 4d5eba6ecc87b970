package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophfriends/internal/common"
)

// domainErrors are returned to callers unchanged.
var domainErrors = []error{
	common.ErrMalformedInput,
	common.ErrInvalidCredentials,
	common.ErrInvalidOrExpiredCode,
	common.ErrInvalidToken,
	common.ErrUserNotFound,
	common.ErrSelfRequest,
	common.ErrAlreadyFriends,
	common.ErrRequestPending,
	common.ErrRequestPreviouslyRejected,
	common.ErrRequestNotFound,
	common.ErrStoreUnavailable,
}

// storeErr classifies err as infrastructure failure unless it already
// carries a domain error.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}

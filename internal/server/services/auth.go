// Package services contains server-side business logic. This file implements
// AuthService, which checks the two login factors and issues session tokens.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/dbx"
	"github.com/dmitrijs2005/gophfriends/internal/logging"
	"github.com/dmitrijs2005/gophfriends/internal/server/auth"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/dmitrijs2005/gophfriends/internal/server/repositories/repomanager"
)

// AuthService authenticates username + password + TOTP code.
type AuthService struct {
	accounts    dbx.Transactor
	repomanager repomanager.RepositoryManager
	issuer      *auth.TokenIssuer
	logger      logging.Logger
	now         func() time.Time

	// dummyHash is compared against when the username is unknown so both
	// outcomes cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService constructs an AuthService over the account store.
func NewAuthService(accounts dbx.Transactor, m repomanager.RepositoryManager, issuer *auth.TokenIssuer, logger logging.Logger) (*AuthService, error) {
	dummy, err := auth.HashPassword(hex.EncodeToString(common.GenerateRandByteArray(16)))
	if err != nil {
		return nil, err
	}
	return &AuthService{
		accounts:    accounts,
		repomanager: m,
		issuer:      issuer,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

// Authenticate checks the password and the TOTP code of the current time
// step and returns a signed session.
//
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
// A wrong code yields ErrInvalidOrExpiredCode.
func (s *AuthService) Authenticate(ctx context.Context, userName, password, code string) (*models.Session, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" || !auth.IsWellFormedCode(code) {
		return nil, common.ErrMalformedInput
	}

	repo := s.repomanager.Users(s.accounts.Conn())

	account, err := repo.ResolveUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, storeErr("resolve username", err)
	}

	cred, err := repo.GetCredential(ctx, account.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, storeErr("get credential", err)
	}

	if !auth.CheckPassword(cred.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	ok, err := auth.ValidateCode(cred.TOTPSecret, code, s.now())
	if err != nil {
		s.logger.Error(ctx, "stored TOTP secret is unusable", "user_id", account.ID, "error", err)
		return nil, common.ErrInvalidOrExpiredCode
	}
	if !ok {
		return nil, common.ErrInvalidOrExpiredCode
	}

	token, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user authenticated", "user_id", account.ID)

	return &models.Session{
		Token:     token,
		UserID:    account.ID,
		UserName:  account.UserName,
		ExpiresAt: expiresAt,
	}, nil
}

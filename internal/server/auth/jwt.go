// Package auth issues and verifies session tokens and checks the two login
// factors (password digest and TOTP code).
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophfriends/internal/common"
	"github.com/dmitrijs2005/gophfriends/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the registered claims plus the two identity claims every protected
// operation needs.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// TokenIssuer signs session tokens with HS256.
type TokenIssuer struct {
	secretKey []byte
	issuer    string
	validity  time.Duration
	now       func() time.Time
}

func NewTokenIssuer(secretKey []byte, issuer string, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{secretKey: secretKey, issuer: issuer, validity: validity, now: time.Now}
}

// Issue returns a signed token for the account and its expiry.
func (i *TokenIssuer) Issue(account *models.Account) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.validity)

	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", time.Time{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   account.ID,
		Username: account.UserName,
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	// NumericDate has second precision; report what the token carries.
	return tokenString, expiresAt.Truncate(time.Second), nil
}

// Verifier checks bearer values produced by a TokenIssuer with the same key
// and issuer.
type Verifier struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewVerifier(secretKey []byte, issuer string) *Verifier {
	return &Verifier{secretKey: secretKey, issuer: issuer, now: time.Now}
}

// Verify validates a transport-level authorization value ("Bearer <token>")
// and returns the caller identity.
func (v *Verifier) Verify(header string) (*models.Identity, error) {
	tokenString, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok {
		return nil, common.ErrMalformedAuthHeader
	}
	return v.VerifyToken(tokenString)
}

// VerifyToken validates a raw token string.
func (v *Verifier) VerifyToken(tokenString string) (*models.Identity, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.UserID == "" || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	return &models.Identity{
		UserID:    claims.UserID,
		UserName:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// CodeLength is the number of digits of a login code.
const CodeLength = 6

// CodePeriod is the TOTP time step.
const CodePeriod = 30 * time.Second

var codeOpts = totp.ValidateOpts{
	Period:    uint(CodePeriod / time.Second),
	Skew:      0,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// IsWellFormedCode reports whether code is exactly six ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateCode checks code against the time step containing at. Adjacent
// steps are not accepted.
func ValidateCode(secret, code string, at time.Time) (bool, error) {
	return totp.ValidateCustom(code, secret, at.UTC(), codeOpts)
}

// GenerateCode returns the code of the time step containing at.
func GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at.UTC(), codeOpts)
}

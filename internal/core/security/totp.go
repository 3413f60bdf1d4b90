package security

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ValidateTOTP checks a time-based one-time code against the user's
// registered seed, allowing one step of clock skew in either direction.
func ValidateTOTP(seed, code string) bool {
	ok, err := totp.ValidateCustom(code, seed, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

package service

import (
	"fmt"
	"math/rand/v2"
)

// OtpLength is the number of digits of a one-time code.
const OtpLength = 6

// GenerateOtp returns a uniformly random zero-padded 6-digit code.
func GenerateOtp() string {
	return formatOtp(rand.IntN(1_000_000))
}

func formatOtp(n int) string {
	return fmt.Sprintf("%06d", n)
}

package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// OTPGenerator draws six digit codes uniformly from [100000, 999999].
type OTPGenerator struct {
	rand io.Reader
}

func NewOTPGenerator() *OTPGenerator {
	return &OTPGenerator{rand: rand.Reader}
}

// Generate returns a fresh code. It only fails when the system entropy source does.
func (g *OTPGenerator) Generate() (string, error) {
	n, err := rand.Int(g.rand, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

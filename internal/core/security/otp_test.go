package security

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPGenerator_Range(t *testing.T) {
	g := NewOTPGenerator()

	for i := 0; i < 500; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, otpMin)
		assert.LessOrEqual(t, n, otpMax)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestOTPGenerator_EntropyFailure(t *testing.T) {
	g := &OTPGenerator{rand: failingReader{}}

	_, err := g.Generate()
	assert.Error(t, err)
}

package otpcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		assert.True(t, Valid(code), code)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"482913":  true,
		"000000":  true,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		" 12345":  false,
		"":        false,
		"４８２９１３": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, Valid(in), "input %q", in)
	}
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber(" 7.25 ")
	assert.True(t, ok)
	assert.Equal(t, 7.25, v)

	for _, s := range []string{"", "abc", "NaN", "Inf", "-Inf", "1,5"} {
		_, ok := ParseNumber(s)
		assert.False(t, ok, s)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 29.46, Round(29.456, 2))
	assert.Equal(t, 29.0, Round(28.96, 0))
	assert.Equal(t, -1.25, Round(-1.2549, 2))
}

package services

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
	}
}

func TestGenerateCodeNLength(t *testing.T) {
	code, err := GenerateCodeN(12)
	require.NoError(t, err)
	assert.Len(t, code, 12)

	_, err = GenerateCodeN(0)
	assert.Error(t, err)
}

// Statistical sanity check only: with 10k draws each alphabet character
// should land well away from zero at every position, and no character
// should dominate.
func TestGenerateCodeDistribution(t *testing.T) {
	const draws = 10000

	counts := make([]map[byte]int, CodeLength)
	for i := range counts {
		counts[i] = make(map[byte]int)
	}

	for i := 0; i < draws; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		for pos := 0; pos < CodeLength; pos++ {
			require.True(t, strings.IndexByte(codeAlphabet, code[pos]) >= 0)
			counts[pos][code[pos]]++
		}
	}

	expected := float64(draws) / float64(len(codeAlphabet))
	for pos, byChar := range counts {
		assert.Len(t, byChar, len(codeAlphabet), "position %d should see the whole alphabet", pos)
		for ch, n := range byChar {
			assert.InDelta(t, expected, float64(n), expected*0.5,
				"position %d char %c is far off uniform", pos, ch)
		}
	}
}

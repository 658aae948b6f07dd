package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateCode(6)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(roomCodeChars, r), "unexpected character %q in code %q", r, code)
		}
	}
}

func TestGenerateCode_DefaultLength(t *testing.T) {
	assert.Len(t, GenerateCode(0), DefaultRoomCodeLength)
	assert.Len(t, GenerateCode(-1), DefaultRoomCodeLength)
	assert.Len(t, GenerateCode(10), 10)
}

func TestGenerateCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[GenerateCode(6)] = true
	}
	// 36^6 codes; 50 draws colliding down to a handful would mean a broken source
	assert.Greater(t, len(seen), 40)
}

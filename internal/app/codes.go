package app

import "crypto/rand"

// DefaultRoomCodeLength is the default length for lobby codes
const DefaultRoomCodeLength = 6

// roomCodeChars is the fixed alphabet lobby codes are drawn from
const roomCodeChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateCode returns a random human-enterable lobby code of the given
// length. Codes are not unique by construction; the registry checks against
// its live set and retries on collision.
func GenerateCode(length int) string {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}

	b := make([]byte, length)
	rand.Read(b)

	code := make([]byte, length)
	for i := range code {
		code[i] = roomCodeChars[int(b[i])%len(roomCodeChars)]
	}

	return string(code)
}

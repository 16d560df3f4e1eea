package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2; these IDs are identifiers, not secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateSessionID generates a unique guest-session ID with "gs_" prefix.
func GenerateSessionID() string {
	return GenerateRandomID("gs_", 32)
}

// GenerateSlideID generates a unique slide ID with "sl_" prefix.
func GenerateSlideID() string {
	return GenerateRandomID("sl_", 32)
}

// GeneratePlaylistID generates a unique playlist ID with "pl_" prefix.
func GeneratePlaylistID() string {
	return GenerateRandomID("pl_", 32)
}

// GeneratePollID generates a unique poll ID with "poll_" prefix.
func GeneratePollID() string {
	return GenerateRandomID("poll_", 32)
}

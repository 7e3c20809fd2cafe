// Package codes produces short room codes guaranteed fresh against the room
// store at generation time.
package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	alphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	CodeLength = 6

	// maxAttempts bounds the uniqueness retry loop. With 36^6 possible codes a
	// collision streak this long means the store is effectively full.
	maxAttempts = 10000
)

// ErrExhausted is returned when no fresh code was found within maxAttempts.
var ErrExhausted = errors.New("codes: could not generate a unique room code")

// RoomChecker is the store surface the generator consults.
type RoomChecker interface {
	HasRoom(code string) bool
}

// Generator draws random codes and retries until one is absent from the store.
type Generator struct {
	rooms RoomChecker
}

// NewGenerator creates a Generator backed by the given store.
func NewGenerator(rooms RoomChecker) *Generator {
	return &Generator{rooms: rooms}
}

// Generate returns a fresh 6-character code from [a-z0-9].
func (g *Generator) Generate() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("codes: drawing random code: %w", err)
		}
		if !g.rooms.HasRoom(code) {
			return code, nil
		}
	}
	return "", ErrExhausted
}

func randomCode() (string, error) {
	// Rejection sampling keeps the draw uniform: 252 is the largest multiple
	// of len(alphabet) below 256.
	const limit = 252

	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b < limit && len(code) < CodeLength {
				code = append(code, alphabet[int(b)%len(alphabet)])
			}
		}
	}
	return string(code), nil
}

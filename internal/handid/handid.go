// Package handid generates sortable hand identifiers: a UUIDv7 rendered as
// 26 characters of Crockford base32, the same shape TypeID uses.
package handid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Length is the size of an encoded ID.
const Length = 26

// Crockford's base32 alphabet, lower case.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator produces hand IDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a generator drawing the random bits of each UUID from
// entropy. A nil reader uses crypto/rand. Pass a seeded reader to get a
// reproducible random suffix; the timestamp prefix always comes from the
// wall clock.
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{entropy: entropy}
}

// Generate returns a new hand ID using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns the next ID. It panics if the entropy source fails,
// which neither crypto/rand nor a seeded rng reader does in practice.
func (g *Generator) Generate() string {
	id, err := g.Next()
	if err != nil {
		panic("handid: " + err.Error())
	}
	return id
}

// Next returns the next ID, or the entropy source's error.
func (g *Generator) Next() (string, error) {
	g.mu.Lock()
	u, err := uuid.NewV7FromReader(g.entropy)
	g.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return Encode(u), nil
}

// Encode renders a UUID as 26 base32 characters. The 128 bits are
// left-padded with two zero bits so the first character is always 0-7.
func Encode(u uuid.UUID) string {
	var out [Length]byte
	// Walk the 130-bit value from the least significant end.
	var acc uint32
	bits := 0
	pos := Length - 1
	for i := len(u) - 1; i >= 0; i-- {
		acc |= uint32(u[i]) << bits
		bits += 8
		for bits >= 5 {
			out[pos] = alphabet[acc&0x1f]
			acc >>= 5
			bits -= 5
			pos--
		}
	}
	for ; pos >= 0; pos-- {
		out[pos] = alphabet[acc&0x1f]
		acc >>= 5
	}
	return string(out[:])
}

// Decode parses an encoded ID back into its UUID.
func Decode(id string) (uuid.UUID, error) {
	var u uuid.UUID
	if err := Validate(id); err != nil {
		return u, err
	}
	var acc uint32
	bits := 0
	pos := len(u) - 1
	for i := Length - 1; i >= 0 && pos >= 0; i-- {
		acc |= uint32(strings.IndexByte(alphabet, id[i])) << bits
		bits += 5
		if bits >= 8 {
			u[pos] = byte(acc)
			acc >>= 8
			bits -= 8
			pos--
		}
	}
	return u, nil
}

// Validate checks that id is 26 characters of lower-case base32 with a
// first character no greater than 7.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("hand ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("hand ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

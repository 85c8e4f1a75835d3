package handid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemgym/internal/randutil"
)

func TestGenerate(t *testing.T) {
	id := Generate()
	assert.Len(t, id, Length)
	require.NoError(t, Validate(id))

	u, err := Decode(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}

func TestGenerateSortedAndUnique(t *testing.T) {
	g := NewGenerator(nil)
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 200; i++ {
		id := g.Generate()
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
		assert.Less(t, prev, id)
		prev = id
	}
}

func TestSeededEntropyIsReproducible(t *testing.T) {
	a := NewGenerator(randutil.NewReader(randutil.New(7)))
	b := NewGenerator(randutil.NewReader(randutil.New(7)))

	ua, err := Decode(a.Generate())
	require.NoError(t, err)
	ub, err := Decode(b.Generate())
	require.NoError(t, err)

	// Bytes after the variant byte come straight from the entropy source.
	assert.Equal(t, ua[9:], ub[9:])
}

func TestEncodeBounds(t *testing.T) {
	assert.Equal(t, strings.Repeat("0", Length), Encode(uuid.Nil))
	assert.Equal(t, "7"+strings.Repeat("z", Length-1), Encode(uuid.Max))
}

func TestDecodeRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		u := uuid.Must(uuid.NewRandomFromReader(randutil.NewReader(randutil.New(int64(i)))))
		got, err := Decode(Encode(u))
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms1234abc", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcde", true},
		{"first char too big", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"excluded letter", "01h5n0et5q6mt3v7ms1234abci", true},
		{"upper case", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := Decode("bad")
	assert.Error(t, err)
}

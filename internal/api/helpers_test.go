package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstLetterUppercase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "john", "John"},
		{"uppercase", "JOHN", "John"},
		{"mixed case", "jOhN", "John"},
		{"two words", "mary jane", "Mary Jane"},
		{"extra spaces kept", "mary  jane", "Mary  Jane"},
		{"empty", "", ""},
		{"single letter", "j", "J"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstLetterUppercase(tt.input))
		})
	}
}

func TestLowerCase(t *testing.T) {
	assert.Equal(t, "john@example.com", LowerCase("JOHN@Example.Com"))
	assert.Equal(t, "plain", LowerCase("plain"))
}

func TestNewUID(t *testing.T) {
	seen := make(map[int64]struct{})
	var prev int64
	for i := 0; i < 100; i++ {
		uid := NewUID()
		assert.Positive(t, uid)
		assert.GreaterOrEqual(t, uid, prev, "uids should be monotonic")
		_, dup := seen[uid]
		assert.False(t, dup, "uid %d generated twice", uid)
		seen[uid] = struct{}{}
		prev = uid
	}
}

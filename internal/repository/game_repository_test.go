package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"elden ring", "elden ring"},
		{"50%", `50\%`},
		{"snake_eater", `snake\_eater`},
		{`back\slash`, `back\\slash`},
		{"%_", `\%\_`},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeLike(tc.in), "escapeLike(%q)", tc.in)
	}
}

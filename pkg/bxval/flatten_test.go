package bxval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

func TestFlatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "plain string",
			in:   "31.08.2025",
			want: "31.08.2025",
		},
		{
			name: "string with surrounding whitespace",
			in:   "  2025-08-31 \n",
			want: "2025-08-31",
		},
		{
			name: "nil",
			in:   nil,
			want: "",
		},
		{
			name: "empty string",
			in:   "   ",
			want: "",
		},
		{
			name: "VALUE envelope",
			in:   map[string]any{"VALUE": "31.08.2025"},
			want: "31.08.2025",
		},
		{
			name: "nested VALUE and TEXT envelopes",
			in:   map[string]any{"VALUE": map[string]any{"TEXT": "31.08.2025"}},
			want: "31.08.2025",
		},
		{
			name: "lowercase value envelope",
			in:   map[string]any{"value": "2025-09-01"},
			want: "2025-09-01",
		},
		{
			name: "assoc map keyed by internal value id",
			in:   map[string]any{"1616": "31.08.2025"},
			want: "31.08.2025",
		},
		{
			name: "list picks first non-empty element",
			in:   []any{map[string]any{}, "", "31.08.2025"},
			want: "31.08.2025",
		},
		{
			name: "list of envelopes",
			in:   []any{map[string]any{"VALUE": ""}, map[string]any{"VALUE": "05.09.2025"}},
			want: "05.09.2025",
		},
		{
			name: "numeric scalar",
			in:   1042,
			want: "1042",
		},
		{
			name: "json-decoded float id keeps string form",
			in:   map[string]any{"VALUE": "1042"},
			want: "1042",
		},
		{
			name: "empty map",
			in:   map[string]any{},
			want: "",
		},
		{
			name: "TEXT wins over VALUE",
			in:   map[string]any{"TEXT": "from text", "VALUE": "from value"},
			want: "from text",
		},
		{
			name: "empty VALUE falls through to assoc entry",
			in:   map[string]any{"VALUE": "", "1616": "31.08.2025"},
			want: "31.08.2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bxval.Flatten(tt.in))
		})
	}
}

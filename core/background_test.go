package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripBackground(t *testing.T) {
	cases := []struct {
		name       string
		line       string
		want       string
		background bool
	}{
		{name: "plain command", line: "ls -la", want: "ls -la"},
		{name: "trailing ampersand", line: "sleep 10 &", want: "sleep 10 ", background: true},
		{name: "no space before ampersand", line: "sleep 10&", want: "sleep 10", background: true},
		{name: "ampersand only", line: "&", want: "", background: true},
		{name: "ampersand mid line", line: "foo & bar", want: "foo & bar"},
		{name: "empty", line: "", want: ""},
		{name: "trailing space after ampersand", line: "sleep 10 & ", want: "sleep 10 & "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, background := StripBackground(tc.line)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.background, background)
		})
	}
}

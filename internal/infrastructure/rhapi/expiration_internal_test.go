package rhapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseExpiration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2030-04-05T10:20:30Z", time.Date(2030, 4, 5, 10, 20, 30, 0, time.UTC), true},
		{"2030-04-05T07:20:30-03:00", time.Date(2030, 4, 5, 10, 20, 30, 0, time.UTC), true},
		{"2030-04-05T10:20:30", time.Date(2030, 4, 5, 10, 20, 30, 0, time.UTC), true},
		{"2030-04-05T10:20:30.123456", time.Date(2030, 4, 5, 10, 20, 30, 123456000, time.UTC), true},
		{"2030-04-05 10:20:30", time.Date(2030, 4, 5, 10, 20, 30, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"amanhã", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := parseExpiration(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.True(t, got.Equal(tc.want), "%s: %s", tc.in, got)
		}
	}
}

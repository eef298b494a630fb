package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		window  string
		want    time.Time
		wantErr string
	}{
		{"", now.AddDate(0, 0, -7), ""},
		{"  ", now.AddDate(0, 0, -7), ""},
		{"7d", now.AddDate(0, 0, -7), ""},
		{"30d", now.AddDate(0, 0, -30), ""},
		{"2w", now.AddDate(0, 0, -14), ""},
		{"24h", now.Add(-24 * time.Hour), ""},
		{"90m", now.Add(-90 * time.Minute), ""},
		{"0h", now, ""},
		{"x", time.Time{}, "invalid window"},
		{"7x", time.Time{}, "unit must be"},
		{"xd", time.Time{}, "whole number"},
		{"-5d", time.Time{}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.window, func(t *testing.T) {
			got, err := ParseSince(tt.window, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenewalDate(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{name: "regular year", start: "2023-05-15", want: "2024-05-14"},
		{name: "leap year start", start: "2024-01-01", want: "2024-12-31"},
		{name: "non leap year", start: "2023-01-01", want: "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDate(RenewalDate(start)))
		})
	}
}

func TestParseDate_BadFormat(t *testing.T) {
	for _, in := range []string{"", "15-05-2023", "2023/05/15", "2023-13-01"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestRenewsWithin(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.True(t, RenewsWithin(today.Add(day), today, day))
	assert.False(t, RenewsWithin(today, today, day))
	assert.False(t, RenewsWithin(today.Add(2*day), today, day))
	assert.True(t, RenewsWithin(today.Add(3*day), today, 7*day))
	assert.False(t, RenewsWithin(today.Add(-day), today, 7*day))
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 6, 10, 23, 59, 0, 0, time.FixedZone("CLT", -4*3600))
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), Today(now))
}

package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, JustNow},
		{45 * time.Second, JustNow},
		{time.Minute, "1m"},
		{90 * time.Minute, "1h 30m"},
		{2 * time.Hour, "2h"},
		{48*time.Hour + 5*time.Minute, "2d 5m"},
		{26*time.Hour + 3*time.Minute + 59*time.Second, "1d 2h 3m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestHoldDuration(t *testing.T) {
	opened := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	d, text, err := HoldDuration(opened, opened.Add(45*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)
	assert.Equal(t, JustNow, text)

	d, text, err = HoldDuration(time.Time{}, opened)
	require.NoError(t, err)
	assert.Zero(t, d)
	assert.Empty(t, text)

	_, _, err = HoldDuration(opened, opened.Add(-time.Second))
	assert.ErrorIs(t, err, ErrNegativeDuration)
}

func TestParseEnums(t *testing.T) {
	mode, err := ParseMarginMode(" Cross ")
	require.NoError(t, err)
	assert.Equal(t, Cross, mode)

	dir, err := ParseDirection("SELL")
	require.NoError(t, err)
	assert.Equal(t, Short, dir)

	for _, s := range Statuses() {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	st, err := ParseStatus("tp")
	require.NoError(t, err)
	assert.Equal(t, HitTarget, st)

	_, err = ParseStatus("pending")
	assert.Error(t, err)
	_, err = ParseDirection("flat")
	assert.Error(t, err)
	_, err = ParseMarginMode("portfolio")
	assert.Error(t, err)
}

func TestParseOptionEnums(t *testing.T) {
	p, err := ParseFeePolicy("auto")
	require.NoError(t, err)
	assert.Equal(t, AutoEstimatedFee, p)

	m, err := ParseLiquidationModel("legacy")
	require.NoError(t, err)
	assert.Equal(t, FixedLeverageModel, m)
}

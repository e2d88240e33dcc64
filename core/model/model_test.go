package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotApplyPartial(t *testing.T) {
	s := InitialSnapshot()
	got := s.Apply(SnapshotPatch{MarketPrice: Float(500)})

	want := s
	want.MarketPrice = 500
	assert.Equal(t, want, got)
	assert.Equal(t, 487.50, s.MarketPrice, "receiver must not change")
}

func TestSnapshotPatchRoundTrip(t *testing.T) {
	src := Snapshot{TotalCapacity: 1, ActiveAssets: 2, UpRegulation: 3, DownRegulation: 4, MarketPrice: 5, AvgPrice: 6, MaxPrice: 7, MinPrice: 8}
	got := InitialSnapshot().Apply(src.Patch())
	assert.Equal(t, src, got)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]AlertLevel{
		"critical": LevelCritical,
		"Warning":  LevelWarning,
		" info ":   LevelInfo,
	} {
		l, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, l)
	}
	_, err := ParseLevel("fatal")
	assert.True(t, errors.Is(err, ErrInvalidLevel))
}

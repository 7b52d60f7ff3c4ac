package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func TestCorrelate(t *testing.T) {
	readings := []Reading{
		{StationID: "1", Timestamp: at(100), WaterLevelM: 12},
		{StationID: "1", Timestamp: at(50), WaterLevelM: 9},
	}

	t.Run("filters and sorts by timestamp", func(t *testing.T) {
		got := Correlate(readings, "1")
		want := []Reading{
			{StationID: "1", Timestamp: at(50), WaterLevelM: 9},
			{StationID: "1", Timestamp: at(100), WaterLevelM: 12},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Correlate() mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, AlertLow, Evaluate(got, 11))
	})

	t.Run("no matching readings", func(t *testing.T) {
		got := Correlate(readings, "2")
		require.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, AlertNormal, Evaluate(got, 11))
	})

	t.Run("unset station id", func(t *testing.T) {
		got := Correlate(readings, "")
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil readings", func(t *testing.T) {
		assert.Empty(t, Correlate(nil, "1"))
	})
}

func TestCorrelate_StableForEqualTimestamps(t *testing.T) {
	readings := []Reading{
		{StationID: "a", Timestamp: at(200), WaterLevelM: 1},
		{StationID: "a", Timestamp: at(100), WaterLevelM: 2},
		{StationID: "b", Timestamp: at(100), WaterLevelM: 3},
		{StationID: "a", Timestamp: at(100), WaterLevelM: 4},
		{StationID: "a", Timestamp: at(100), WaterLevelM: 5},
	}

	got := Correlate(readings, "a")

	levels := make([]float64, 0, len(got))
	for _, r := range got {
		levels = append(levels, r.WaterLevelM)
	}
	assert.Equal(t, []float64{2, 4, 5, 1}, levels)
}

func TestCorrelate_ExactlyMatchingSubsetSorted(t *testing.T) {
	var readings []Reading
	ids := []StationID{"x", "y", "z"}
	for i := range 60 {
		readings = append(readings, Reading{
			StationID:   ids[i%3],
			Timestamp:   at(int64((i * 37) % 23)),
			WaterLevelM: float64(i),
		})
	}

	for _, id := range ids {
		got := Correlate(readings, id)

		var want int
		for _, r := range readings {
			if r.StationID == id {
				want++
			}
		}
		require.Len(t, got, want)
		for i, r := range got {
			assert.Equal(t, id, r.StationID)
			if i > 0 {
				assert.False(t, r.Timestamp.Before(got[i-1].Timestamp), "series must be non-decreasing")
			}
		}
	}
}

func TestCorrelate_Idempotent(t *testing.T) {
	readings := []Reading{
		{StationID: "1", Timestamp: at(3), WaterLevelM: 10},
		{StationID: "1", Timestamp: at(1), WaterLevelM: 11},
		{StationID: "1", Timestamp: at(1), WaterLevelM: 12},
	}
	first := Correlate(readings, "1")
	second := Correlate(readings, "1")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Correlate() not idempotent (-first +second):\n%s", diff)
	}
}

func TestCorrelate_DoesNotModifyInput(t *testing.T) {
	readings := []Reading{
		{StationID: "1", Timestamp: at(3)},
		{StationID: "1", Timestamp: at(1)},
	}
	Correlate(readings, "1")
	assert.Equal(t, at(3), readings[0].Timestamp)
}

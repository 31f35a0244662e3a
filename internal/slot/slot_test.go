package slot

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := ParseClock(s)
	require.NoError(t, err)
	return v
}

func collect(seq func(func(time.Time) bool)) []string {
	var out []string
	for v := range seq {
		out = append(out, v.Format(Layout))
	}
	return out
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"exact multiple", "09:00", "10:30", []string{"09:00", "09:30", "10:00"}},
		{"partial trailing slot dropped", "09:00", "09:45", []string{"09:00"}},
		{"window shorter than a slot", "09:00", "09:20", nil},
		{"empty window", "09:00", "09:00", nil},
		{"inverted window", "10:00", "09:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(Derive(clock(t, tt.from), clock(t, tt.to), DefaultStep))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveIsRestartable(t *testing.T) {
	seq := Derive(clock(t, "08:00"), clock(t, "09:30"), DefaultStep)

	first := collect(seq)
	second := collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestDeriveStopsEarly(t *testing.T) {
	seq := Derive(clock(t, "08:00"), clock(t, "18:00"), DefaultStep)

	var got []time.Time
	for v := range seq {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestDeriveNonPositiveStep(t *testing.T) {
	assert.Empty(t, collect(Derive(clock(t, "08:00"), clock(t, "09:00"), 0)))
}

func TestTimesAcceptsSeconds(t *testing.T) {
	got, err := Times("09:00:00", "10:00:00", DefaultStep)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, got)

	_, err = Times("9am", "10:00", DefaultStep)
	assert.Error(t, err)
}

func TestSubtract(t *testing.T) {
	all := []string{"09:00", "09:30", "10:00"}

	assert.Equal(t, []string{"09:00", "10:00"}, Subtract(all, []string{"09:30", "11:00"}))
	assert.Equal(t, all, Subtract(all, nil))
	assert.Empty(t, Subtract(all, all))
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"14:00", "14:30"}, []string{"09:00", "14:00"})
	assert.True(t, slices.IsSorted(got))
	assert.Equal(t, []string{"09:00", "14:00", "14:30"}, got)
}

func TestEnd(t *testing.T) {
	end, err := End("09:30", DefaultStep)
	require.NoError(t, err)
	assert.Equal(t, "10:00", end)
}

func TestNormalizeClock(t *testing.T) {
	got, err := NormalizeClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", got)
}

package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayForCatalogStarts(t *testing.T) {
	tests := []struct {
		start string
		want  string
	}{
		{"08:00", "8:00am-10:00am"},
		{"10:00", "10:00am-12:00pm"},
		{"13:00", "1:00pm-3:00pm"},
		{"15:00", "3:00pm-5:00pm"},
		{"17:00", "5:00pm-7:00pm"},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayFor(tt.start))
		})
	}
}

func TestDisplayForFallsBack(t *testing.T) {
	assert.Equal(t, "09:30", DisplayFor("09:30"))
	assert.Equal(t, "09:30", DisplayFor("09:30:15"))
	assert.Equal(t, "noon", DisplayFor("noon"))
	assert.Equal(t, "N/A", DisplayFor(""))
	assert.Equal(t, "N/A", DisplayFor("   "))
}

func TestDisplayForIgnoresSeconds(t *testing.T) {
	assert.Equal(t, DisplayFor("08:00"), DisplayFor("08:00:00"))
	assert.Equal(t, DisplayFor("17:00"), DisplayFor("17:00:59"))
	assert.Equal(t, "8:00am-10:00am", DisplayFor("8:00"))
}

func TestAllIsOrderedCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 5)

	starts := make([]string, 0, len(all))
	for _, s := range all {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []string{"08:00", "10:00", "13:00", "15:00", "17:00"}, starts)

	all[0].Display = "changed"
	assert.Equal(t, "8:00am-10:00am", All()[0].Display)
}

func TestAvailableNoExclusions(t *testing.T) {
	assert.Equal(t, All(), Available(All(), nil))
	assert.Equal(t, All(), Available(All(), []string{}))
}

func TestAvailableExcludesTaken(t *testing.T) {
	got := Available(All(), []string{"08:00", "17:00"})
	require.Len(t, got, 3)
	assert.Equal(t, "10:00", got[0].Start)
	assert.Equal(t, "13:00", got[1].Start)
	assert.Equal(t, "15:00", got[2].Start)
}

func TestAvailableNormalizesTaken(t *testing.T) {
	got := Available(All(), []string{"13:00:00", "09:30"})
	require.Len(t, got, 4)
	for _, s := range got {
		assert.NotEqual(t, "13:00", s.Start)
	}
}

func TestAvailableAllTaken(t *testing.T) {
	got := Available(All(), []string{"08:00", "10:00", "13:00", "15:00", "17:00"})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestIsCatalogStart(t *testing.T) {
	assert.True(t, IsCatalogStart("08:00"))
	assert.True(t, IsCatalogStart("15:00:00"))
	assert.False(t, IsCatalogStart("12:00"))
	assert.False(t, IsCatalogStart("garbage"))
	assert.False(t, IsCatalogStart("+8:00"))
	assert.Equal(t, "08:+5", DisplayFor("08:+5"))
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"08:00", 8, 0, true},
		{"8:05", 8, 5, true},
		{"23:59:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"10:60", 0, 0, false},
		{"10", 0, 0, false},
		{"10:5", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"10:00:00:00", 0, 0, false},
		{"", 0, 0, false},
		{"+8:00", 0, 0, false},
		{"-0:00", 0, 0, false},
		{"08:+5", 0, 0, false},
		{"13:00:-1", 0, 0, false},
		{":00", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, ok := ParseStart(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, h)
				assert.Equal(t, tt.minute, m)
			}
		})
	}
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		value      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"06:30", 6, 30, false},
		{"0:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"-1:30", 0, 0, true},
		{"1230", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			hour, minute, err := parseClock(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestClassTemplateInputDefaults(t *testing.T) {
	in := &ClassTemplateInput{Title: "Morning Gi", Weekday: 1, StartTime: "06:30"}

	require.NoError(t, in.normalize())
	assert.Equal(t, "GI", in.Discipline)
	assert.Equal(t, 60, in.DurationMin)
	assert.Equal(t, 20, in.Capacity)
	assert.Equal(t, "ALL", in.Level)
}

func TestClassTemplateInputKeepsExplicitValues(t *testing.T) {
	in := &ClassTemplateInput{
		Title:       "NoGi Sparring",
		Discipline:  "NOGI",
		Weekday:     6,
		StartTime:   "19:00",
		DurationMin: 90,
		Capacity:    30,
		Level:       "BLUE",
	}

	require.NoError(t, in.normalize())
	assert.Equal(t, "NOGI", in.Discipline)
	assert.Equal(t, 90, in.DurationMin)
	assert.Equal(t, 30, in.Capacity)
	assert.Equal(t, "BLUE", in.Level)
}

func TestClassTemplateInputRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   ClassTemplateInput
		wantErr error
	}{
		{"weekday too low", ClassTemplateInput{Weekday: -1, StartTime: "06:30"}, ErrInvalidWeekday},
		{"weekday too high", ClassTemplateInput{Weekday: 7, StartTime: "06:30"}, ErrInvalidWeekday},
		{"bad clock", ClassTemplateInput{Weekday: 0, StartTime: "6pm"}, ErrInvalidStartTime},
		{"missing clock", ClassTemplateInput{Weekday: 0}, ErrInvalidStartTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.input.normalize(), tt.wantErr)
		})
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input string
		want  time.Weekday
	}{
		{input: "mon", want: time.Monday},
		{input: "monday", want: time.Monday},
		{input: "Tue", want: time.Tuesday},
		{input: "TUESDAY", want: time.Tuesday},
		{input: "wed", want: time.Wednesday},
		{input: "thu", want: time.Thursday},
		{input: "friday", want: time.Friday},
		{input: " fri ", want: time.Friday},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWeekdayInvalid(t *testing.T) {
	for _, input := range []string{"", "someday", "sat", "sunday", "m0n"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseWeekday(input)
			require.Error(t, err)
		})
	}
}

func TestWeekdayName(t *testing.T) {
	// Monday-first canonical ordering.
	assert.Equal(t, "Monday", WeekdayName(time.Monday))
	assert.Equal(t, "Sunday", WeekdayName(time.Sunday))
	assert.Equal(t, Weekdays[0], WeekdayName(time.Monday))
	assert.Equal(t, Weekdays[6], WeekdayName(time.Sunday))
}

func TestCurrentWeekday(t *testing.T) {
	assert.Equal(t, time.Now().Weekday().String(), CurrentWeekday())
}

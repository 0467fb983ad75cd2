package repository

import (
	"reflect"
	"testing"
)

func TestPreferenceFieldsSkipBlankWindows(t *testing.T) {
	tests := []struct {
		name             string
		enabled          bool
		morning, evening string
		want             map[string]any
	}{
		{
			"toggle only leaves stored windows untouched",
			false, "", "",
			map[string]any{"push_enabled": false},
		},
		{
			"morning only",
			true, "07:30", "",
			map[string]any{"push_enabled": true, "morning_window_start": "07:30"},
		},
		{
			"both windows",
			true, "07:30", "19:00",
			map[string]any{
				"push_enabled":         true,
				"morning_window_start": "07:30",
				"evening_window_start": "19:00",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := preferenceFields(tc.enabled, tc.morning, tc.evening)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("preferenceFields = %v, want %v", got, tc.want)
			}
		})
	}
}

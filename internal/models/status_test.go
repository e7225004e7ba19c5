package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"", StatusTodo},
		{"todo", StatusTodo},
		{"in_progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"IN-PROGRESS", StatusInProgress},
		{"completed", StatusCompleted},
		{" completed ", StatusCompleted},
		{"done", StatusTodo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestParseStatus_Rejects(t *testing.T) {
	_, ok := ParseStatus("archived")
	assert.False(t, ok)
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"", PriorityMedium},
		{"low", PriorityLow},
		{"HIGH", PriorityHigh},
		{"Medium", PriorityMedium},
		{"urgent", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePriority(tt.in))
		})
	}
}

func TestStatusToggled(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusTodo.Toggled())
	assert.Equal(t, StatusCompleted, StatusInProgress.Toggled())
	assert.Equal(t, StatusTodo, StatusCompleted.Toggled())
}

func TestValid(t *testing.T) {
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("in-progress").Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("HIGH").Valid())
}

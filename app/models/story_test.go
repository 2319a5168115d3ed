package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":             "hello-world",
		"  Spaces   Everywhere  ": "spaces-everywhere",
		"Rebuilding Homes, 2024!": "rebuilding-homes-2024",
		"Ünïcode":                 "ncode",
	}

	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestStoryTimeAgo(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		updated time.Time
		want    string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-50 * time.Hour), "2 days ago"},
	}

	for _, tt := range tests {
		s := &Story{UpdatedAt: tt.updated}
		assert.Equal(t, tt.want, s.TimeAgo(now))
	}
}

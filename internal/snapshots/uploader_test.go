package snapshots

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	capturedAt := time.Date(2025, 9, 13, 10, 30, 45, 0, time.UTC)

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"with prefix", "screenshots", "screenshots/sales-20250913-103045.png"},
		{"nested prefix", "audit/pages", "audit/pages/sales-20250913-103045.png"},
		{"no prefix", "", "sales-20250913-103045.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &Uploader{bucket: "leaderboard-audit", prefix: tt.prefix}
			if got := u.ObjectName(capturedAt); got != tt.want {
				t.Errorf("Expected object name %q, got %q", tt.want, got)
			}
		})
	}
}

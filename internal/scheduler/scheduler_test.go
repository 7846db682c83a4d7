package scheduler

import (
	"context"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:30", 9, 30, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"09:60", 0, 0, true},
		{"9", 0, 0, true},
		{"nine:30", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := parseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseClock(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClock(%q): %v", tt.in, err)
			}
			if hour != tt.hour || minute != tt.minute {
				t.Errorf("parseClock(%q) = %d:%d, want %d:%d", tt.in, hour, minute, tt.hour, tt.minute)
			}
		})
	}
}

func TestAddIntervalRejectsNonPositive(t *testing.T) {
	s := New(context.Background(), false)
	if _, err := s.AddInterval(0, func(ctx context.Context) {}); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := s.AddInterval(-5, func(ctx context.Context) {}); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestAddDaily(t *testing.T) {
	s := New(context.Background(), false)
	if _, err := s.AddDaily("09:30", func(ctx context.Context) {}); err != nil {
		t.Errorf("AddDaily: %v", err)
	}
	if _, err := s.AddDaily("25:00", func(ctx context.Context) {}); err == nil {
		t.Error("expected error for invalid clock")
	}
}

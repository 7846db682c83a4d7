package utils

import (
	"testing"
	"time"
)

func TestFormatIndianCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{14550, "₹14,550.00"},
		{100000, "₹1,00,000.00"},
		{1234567.89, "₹12,34,567.89"},
		{10000000, "₹1,00,00,000.00"},
		{-14550.5, "-₹14,550.50"},
	}

	for _, tt := range tests {
		if got := FormatIndianCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatIndianCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{10.345, "+10.35%"},
		{-5, "-5.00%"},
		{0, "0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.value); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		qty  int64
		want string
	}{
		{0, "0"},
		{150, "150"},
		{1500, "1,500"},
		{150000, "1,50,000"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		if got := FormatQuantity(tt.qty); got != tt.want {
			t.Errorf("FormatQuantity(%d) = %q, want %q", tt.qty, got, tt.want)
		}
	}
}

func TestIsMarketOpen(t *testing.T) {
	at := func(weekday, hour, minute int) time.Time {
		// 2024-01-01 is a Monday.
		return time.Date(2024, 1, 1+weekday-1, hour, minute, 0, 0, IndiaLocation)
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"monday mid-session", at(1, 11, 0), true},
		{"open boundary", at(1, 9, 15), true},
		{"close boundary", at(1, 15, 30), true},
		{"before open", at(1, 9, 14), false},
		{"after close", at(1, 15, 31), false},
		{"saturday", at(6, 11, 0), false},
		{"sunday", at(7, 11, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpen(tt.now); got != tt.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNextMarketOpen(t *testing.T) {
	// Friday 16:00 IST rolls to Monday 09:15.
	friday := time.Date(2024, 1, 5, 16, 0, 0, 0, IndiaLocation)
	next := NextMarketOpen(friday)
	if next.Weekday() != time.Monday || next.Hour() != 9 || next.Minute() != 15 {
		t.Errorf("NextMarketOpen(friday evening) = %v", next)
	}

	// Monday 08:00 opens the same day.
	monday := time.Date(2024, 1, 1, 8, 0, 0, 0, IndiaLocation)
	next = NextMarketOpen(monday)
	if next.Day() != 1 || next.Hour() != 9 || next.Minute() != 15 {
		t.Errorf("NextMarketOpen(monday morning) = %v", next)
	}
}

package timeutil

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestFormatStamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "utc with sub-second precision stripped",
			in:   time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC),
			want: "2025-01-02T03:04:05+00:00",
		},
		{
			name: "zoned input converted to utc",
			in:   time.Date(2025, 6, 15, 9, 30, 0, 0, time.FixedZone("X", 2*3600)),
			want: "2025-06-15T07:30:00+00:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatStamp(tt.in); got != tt.want {
				t.Errorf("FormatStamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "canonical offset form",
			in:   "2025-01-02T03:04:05+00:00",
			want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name: "z suffix form",
			in:   "2025-01-02T03:04:05Z",
			want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name: "non-utc offset normalized",
			in:   "2025-01-02T05:04:05+02:00",
			want: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:    "garbage",
			in:      "yesterday",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseStamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatStampStableUnderReserialization(t *testing.T) {
	in := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	s1 := FormatStamp(in)
	parsed, err := ParseStamp(s1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s2 := FormatStamp(parsed); s2 != s1 {
		t.Errorf("round trip changed stamp: %q -> %q", s1, s2)
	}
}

func TestCombineDateTime(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name    string
		date    string
		time    string
		want    time.Time
		wantErr bool
	}{
		{
			name: "date and time in summer",
			date: "2025-06-15",
			time: "09:30",
			want: time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC),
		},
		{
			name: "date and time in winter",
			date: "2025-01-15",
			time: "09:30",
			want: time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name: "missing time means local midnight",
			date: "2025-06-15",
			time: "",
			want: time.Date(2025, 6, 15, 4, 0, 0, 0, time.UTC),
		},
		{
			name:    "malformed date",
			date:    "2025-13-01",
			time:    "09:00",
			wantErr: true,
		},
		{
			name:    "hour out of range",
			date:    "2025-06-15",
			time:    "25:00",
			wantErr: true,
		},
		{
			name:    "minute out of range",
			date:    "2025-06-15",
			time:    "12:61",
			wantErr: true,
		},
		{
			name:    "trailing garbage",
			date:    "2025-06-15x",
			time:    "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CombineDateTime(tt.date, tt.time, ny)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("CombineDateTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayWindow(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name      string
		day       time.Time
		wantStart time.Time
		wantLen   time.Duration
	}{
		{
			name:      "ordinary day is 24h",
			day:       time.Date(2026, 1, 15, 12, 0, 0, 0, ny),
			wantStart: time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC),
			wantLen:   24 * time.Hour,
		},
		{
			name:      "spring forward day is 23h",
			day:       time.Date(2026, 3, 8, 12, 0, 0, 0, ny),
			wantStart: time.Date(2026, 3, 8, 5, 0, 0, 0, time.UTC),
			wantLen:   23 * time.Hour,
		},
		{
			name:      "fall back day is 25h",
			day:       time.Date(2026, 11, 1, 12, 0, 0, 0, ny),
			wantStart: time.Date(2026, 11, 1, 4, 0, 0, 0, time.UTC),
			wantLen:   25 * time.Hour,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DayWindow(tt.day, ny)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if got := end.Sub(start); got != tt.wantLen {
				t.Errorf("window length = %v, want %v", got, tt.wantLen)
			}
		})
	}
}

func TestToLocal(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	in := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)
	got := ToLocal(in, ny)
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("ToLocal() = %v, want 09:30 local", got)
	}
	if !got.Equal(in) {
		t.Error("ToLocal changed the instant")
	}
}

package utils

import (
	"testing"
	"time"
)

func TestIDClockIsStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	clock := NewIDClockAt(func() time.Time { return fixed })

	first := clock.Next()
	if first != fixed.UnixMilli() {
		t.Fatalf("Expected %d, got %d", fixed.UnixMilli(), first)
	}
	if second := clock.Next(); second != first+1 {
		t.Errorf("Expected %d, got %d", first+1, second)
	}
}

func TestISOMillis(t *testing.T) {
	ts := time.Date(2025, 12, 9, 12, 0, 0, 5_000_000, time.FixedZone("CST", 8*3600))
	if got := ISOMillis(ts); got != "2025-12-09T04:00:00.005Z" {
		t.Errorf("Unexpected format %s", got)
	}
}

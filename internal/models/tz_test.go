package models

import (
	"testing"
	"time"
)

func TestTZShort(t *testing.T) {
	winter := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	if got := TZShort("America/New_York", &winter); got != "EST" {
		t.Errorf("TZShort(New_York, winter) = %q, want EST", got)
	}
	if got := TZShort("America/New_York", &summer); got != "EDT" {
		t.Errorf("TZShort(New_York, summer) = %q, want EDT", got)
	}
	if got := TZShort("Asia/Kolkata", &summer); got != "IST" {
		t.Errorf("TZShort(Kolkata) = %q, want IST", got)
	}
	if got := TZShort("Not/AZone", &summer); got != "" {
		t.Errorf("TZShort(bad zone) = %q, want empty", got)
	}
	if got := TZShort("", nil); got != "" {
		t.Errorf("TZShort(empty) = %q, want empty", got)
	}
}

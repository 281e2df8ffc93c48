package traffic

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTracker_ErrorRate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTrackerWithClock(clock)

	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordError()

	errors, total := tr.ErrorRate(time.Minute)
	if errors != 1 || total != 4 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 4)", errors, total)
	}
}

// TestTracker_WindowExcludesOldOutcomes verifies outcomes age out of the window.
func TestTracker_WindowExcludesOldOutcomes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTrackerWithClock(clock)

	tr.RecordError()
	clock.Advance(2 * time.Minute)
	tr.RecordSuccess()

	errors, total := tr.ErrorRate(time.Minute)
	if errors != 0 || total != 1 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 1)", errors, total)
	}
}

func TestTracker_DenialsExcludedFromErrorRate(t *testing.T) {
	tr := NewTrackerWithClock(clockwork.NewFakeClock())

	tr.RecordSuccess()
	tr.RecordDenied()
	tr.RecordDenied()

	_, total := tr.ErrorRate(time.Minute)
	if total != 1 {
		t.Errorf("ErrorRate() total = %d, want 1 (denials excluded)", total)
	}
	if got := tr.RequestCount(time.Minute); got != 3 {
		t.Errorf("RequestCount() = %d, want 3", got)
	}
	if got := tr.DenialCount(time.Minute); got != 2 {
		t.Errorf("DenialCount() = %d, want 2", got)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTrackerWithClock(clockwork.NewFakeClock())
	tr.RecordSuccess()
	tr.RecordError()
	tr.Reset()

	if got := tr.RequestCount(time.Minute); got != 0 {
		t.Errorf("RequestCount() after Reset = %d, want 0", got)
	}
}

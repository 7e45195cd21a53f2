package hooks

import (
	"testing"
	"time"

	"github.com/jrc1883/elshaddai-hooks/pkg/reactive"
	"github.com/jrc1883/elshaddai-hooks/pkg/timer"
)

func debouncedString(t *testing.T, initial string, delay time.Duration) (*reactive.Signal[string], *reactive.Signal[string], *timer.Manual) {
	t.Helper()
	clock := timer.NewManual()
	scope := reactive.NewScope(nil, reactive.Immediate())
	t.Cleanup(scope.Dispose)

	in := reactive.NewSignal(initial)
	var out *reactive.Signal[string]
	scope.Run(func() {
		out = Debounced(in, delay, WithScheduler(clock))
	})
	return in, out, clock
}

func TestDebouncedInitialValueImmediate(t *testing.T) {
	_, out, _ := debouncedString(t, "hello", 300*time.Millisecond)
	if got := out.Peek(); got != "hello" {
		t.Errorf("initial value = %q, want %q", got, "hello")
	}
}

func TestDebouncedCommitsAfterExactDelay(t *testing.T) {
	in, out, clock := debouncedString(t, "", 300*time.Millisecond)

	in.Set("ab")
	if got := out.Peek(); got != "" {
		t.Errorf("value right after input = %q, want empty", got)
	}

	clock.Advance(299 * time.Millisecond)
	if got := out.Peek(); got != "" {
		t.Errorf("value at 299ms = %q, want empty", got)
	}

	clock.Advance(1 * time.Millisecond)
	if got := out.Peek(); got != "ab" {
		t.Errorf("value at 300ms = %q, want %q", got, "ab")
	}
}

func TestDebouncedSupersededInputNeverObserved(t *testing.T) {
	in, out, clock := debouncedString(t, "", 300*time.Millisecond)

	var observed []string
	scope := reactive.NewScope(nil, reactive.Immediate())
	defer scope.Dispose()
	scope.Run(func() {
		reactive.CreateEffect(func() reactive.Cleanup {
			observed = append(observed, out.Get())
			return nil
		})
	})

	in.Set("a")
	clock.Advance(100 * time.Millisecond)
	in.Set("ab")
	clock.Advance(100 * time.Millisecond)
	in.Set("abc")
	clock.Advance(300 * time.Millisecond)

	if got := out.Peek(); got != "abc" {
		t.Errorf("final value = %q, want %q", got, "abc")
	}
	for _, v := range observed {
		if v == "a" || v == "ab" {
			t.Errorf("intermediate input %q was observed", v)
		}
	}
}

func TestDebouncedZeroDelayStillDefers(t *testing.T) {
	in, out, clock := debouncedString(t, "", 0)

	in.Set("x")
	if got := out.Peek(); got != "" {
		t.Errorf("zero-delay commit was synchronous: %q", got)
	}

	clock.Advance(0)
	if got := out.Peek(); got != "x" {
		t.Errorf("value after flush = %q, want %q", got, "x")
	}
}

func TestDebouncedNegativeDelayTreatedAsZero(t *testing.T) {
	in, out, clock := debouncedString(t, "", -time.Second)

	in.Set("x")
	clock.Advance(0)
	if got := out.Peek(); got != "x" {
		t.Errorf("value = %q, want %q", got, "x")
	}
}

func TestDebouncedScopeDisposeCancelsPendingCommit(t *testing.T) {
	clock := timer.NewManual()
	scope := reactive.NewScope(nil, reactive.Immediate())

	in := reactive.NewSignal("")
	var out *reactive.Signal[string]
	scope.Run(func() {
		out = Debounced(in, 300*time.Millisecond, WithScheduler(clock))
	})

	in.Set("pending")
	scope.Dispose()

	clock.Advance(time.Second)
	if got := out.Peek(); got != "" {
		t.Errorf("commit fired after dispose: %q", got)
	}
	if n := clock.Pending(); n != 0 {
		t.Errorf("pending schedules after dispose = %d, want 0", n)
	}
}

func TestDebounceCell(t *testing.T) {
	clock := timer.NewManual()
	cell := NewDebounceCell("", 300*time.Millisecond, WithScheduler(clock))
	defer cell.Close()

	cell.Input("ab")
	if got := cell.Value(); got != "" {
		t.Errorf("value before delay = %q, want empty", got)
	}

	clock.Advance(300 * time.Millisecond)
	if got := cell.Value(); got != "ab" {
		t.Errorf("value after delay = %q, want %q", got, "ab")
	}
}

func TestDebounceCellNegativeDelayUsesDefault(t *testing.T) {
	clock := timer.NewManual()
	cell := NewDebounceCell("", -1, WithScheduler(clock))
	defer cell.Close()

	cell.Input("x")
	clock.Advance(DefaultDebounceDelay - time.Millisecond)
	if got := cell.Value(); got != "" {
		t.Errorf("committed before the default delay elapsed: %q", got)
	}
	clock.Advance(time.Millisecond)
	if got := cell.Value(); got != "x" {
		t.Errorf("value = %q, want %q", got, "x")
	}
}

func TestDebounceCellCloseCancelsCommit(t *testing.T) {
	clock := timer.NewManual()
	cell := NewDebounceCell("keep", 300*time.Millisecond, WithScheduler(clock))

	cell.Input("dropped")
	cell.Close()
	clock.Advance(time.Second)

	if got := cell.Value(); got != "keep" {
		t.Errorf("value after close = %q, want %q", got, "keep")
	}
}

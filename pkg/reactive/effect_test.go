package reactive

import "testing"

func TestEffectRunsOnCreate(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	ran := false
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			ran = true
			return nil
		})
	})

	if !ran {
		t.Error("effect should run immediately on creation")
	}
}

func TestEffectTracksDependencies(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	count := NewSignal(0)
	runs := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	count.Set(1)
	scope.Flush()

	if runs != 2 {
		t.Errorf("expected 2 runs after signal change, got %d", runs)
	}
}

func TestEffectCleanupBeforeRerunAndOnDispose(t *testing.T) {
	scope := NewScope(nil)

	count := NewSignal(0)
	cleanups := 0

	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			return func() { cleanups++ }
		})
	})

	if cleanups != 0 {
		t.Fatalf("cleanup ran before any re-run, got %d", cleanups)
	}

	count.Set(1)
	scope.Flush()
	if cleanups != 1 {
		t.Errorf("expected cleanup before re-run, got %d", cleanups)
	}

	scope.Dispose()
	if cleanups != 2 {
		t.Errorf("expected cleanup on dispose, got %d", cleanups)
	}
}

func TestEffectDynamicDependencies(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	useA := NewSignal(true)
	a := NewSignal(1)
	b := NewSignal(2)

	runs := 0
	var last int
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			runs++
			if useA.Get() {
				last = a.Get()
			} else {
				last = b.Get()
			}
			return nil
		})
	})

	// b is not tracked yet.
	b.Set(20)
	scope.Flush()
	if runs != 1 {
		t.Errorf("untracked signal triggered effect, runs = %d", runs)
	}

	useA.Set(false)
	scope.Flush()
	if last != 20 {
		t.Errorf("expected switch to b (20), got %d", last)
	}

	// After the switch, a must no longer trigger.
	runs = 0
	a.Set(100)
	scope.Flush()
	if runs != 0 {
		t.Errorf("stale dependency still triggers, runs = %d", runs)
	}

	b.Set(200)
	scope.Flush()
	if last != 200 {
		t.Errorf("expected 200 from b, got %d", last)
	}
}

func TestEffectMarkDirtyCoalesces(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	count := NewSignal(0)
	runs := 0
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	count.Set(1)
	count.Set(2)
	count.Set(3)
	scope.Flush()

	if runs != 2 {
		t.Errorf("expected coalesced re-run (2 total), got %d", runs)
	}
}

func TestEffectDisposedStopsReacting(t *testing.T) {
	scope := NewScope(nil)

	count := NewSignal(0)
	runs := 0
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	scope.Dispose()
	count.Set(5)

	if runs != 1 {
		t.Errorf("disposed effect ran again, runs = %d", runs)
	}
}

func TestOnMountAndOnUnmount(t *testing.T) {
	scope := NewScope(nil)

	mounted := false
	unmounted := false
	scope.Run(func() {
		OnMount(func() { mounted = true })
		OnUnmount(func() { unmounted = true })
	})

	if !mounted {
		t.Error("OnMount should run immediately")
	}
	if unmounted {
		t.Error("OnUnmount ran before dispose")
	}

	scope.Dispose()
	if !unmounted {
		t.Error("OnUnmount should run on dispose")
	}
}

func TestEffectWithoutScope(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	// No scope: MarkDirty re-runs synchronously.
	count.Set(1)
	if runs != 2 {
		t.Errorf("scopeless effect should re-run synchronously, runs = %d", runs)
	}

	e.Dispose()
	count.Set(2)
	if runs != 2 {
		t.Errorf("disposed effect re-ran, runs = %d", runs)
	}
}

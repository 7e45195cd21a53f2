package reactive

// Batch groups signal writes so subscribers are notified once, after the
// outermost batch completes, with duplicate notifications removed.
//
//	reactive.Batch(func() {
//	    width.Set(1024)
//	    height.Set(768)
//	})
//	// dependents re-run once
func Batch(fn func()) {
	st := state()
	st.batch++
	defer func() {
		st.batch--
		if st.batch == 0 {
			flushPending(st)
		}
		releaseState()
	}()
	fn()
}

func flushPending(st *trackingState) {
	pending := st.pending
	st.pending = nil
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	for _, l := range pending {
		if seen[l.ID()] {
			continue
		}
		seen[l.ID()] = true
		l.MarkDirty()
	}
}

// Untracked runs fn without dependency tracking: signal reads inside do not
// subscribe the current listener. For a single read prefer Signal.Peek.
func Untracked(fn func()) {
	prev := setActiveListener(nil)
	defer setActiveListener(prev)
	fn()
}

// Package reactive provides the state-management lifecycle the hooks in this
// repository are built on: signals, effects with cleanup, and scopes.
//
// A Signal[T] is a thread-safe reactive value container. Reading a signal
// inside an effect subscribes that effect to the signal:
//
//	query := reactive.NewSignal("")
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("query is now:", query.Get())
//	    return nil
//	})
//	query.Set("go")
//
// An effect may return a Cleanup. The cleanup runs before every re-run of the
// effect and when the effect is disposed, which makes it the single place to
// release whatever the effect acquired: a timer, a media-query subscription,
// a store watch. Every hook in pkg/hooks is an effect wrapped around exactly
// one such acquisition.
//
// A Scope owns effects and nested scopes. Disposing a scope disposes
// everything it owns, in reverse creation order, and guarantees that no
// pending timer or subscription fires afterwards. Scopes default to deferred
// effect execution (call Flush to run scheduled re-runs); pass Immediate()
// to NewScope to re-run effects synchronously on signal writes.
package reactive

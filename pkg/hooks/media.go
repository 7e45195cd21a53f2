package hooks

import (
	"github.com/jrc1883/elshaddai-hooks/pkg/media"
	"github.com/jrc1883/elshaddai-hooks/pkg/reactive"
)

// MatchMedia returns a signal reporting whether query matches env. The
// initial value is env's synchronous evaluation; afterwards the signal
// follows env's change notifications for the query. The subscription is
// released when the current scope is disposed.
func MatchMedia(env media.Environment, query string) *reactive.Signal[bool] {
	out := reactive.NewSignal(env.Evaluate(query))

	reactive.CreateEffect(func() reactive.Cleanup {
		cancel := media.Observe(env, query, func(matches bool) {
			out.Set(matches)
		})
		return reactive.Cleanup(cancel)
	})

	return out
}

// MatchMediaSignal is MatchMedia for a query that can change identity. When
// the query signal changes, the old subscription is released, the new query
// is evaluated immediately, and a fresh subscription is established.
func MatchMediaSignal(env media.Environment, query *reactive.Signal[string]) *reactive.Signal[bool] {
	out := reactive.NewSignal(env.Evaluate(query.Peek()))

	reactive.CreateEffect(func() reactive.Cleanup {
		q := query.Get()
		out.Set(env.Evaluate(q))
		cancel := media.Observe(env, q, func(matches bool) {
			out.Set(matches)
		})
		return reactive.Cleanup(cancel)
	})

	return out
}

// Viewport breakpoint and preference conveniences. Each is MatchMedia with
// a fixed query string.

// IsMobile reports a viewport at most 768px wide.
func IsMobile(env media.Environment) *reactive.Signal[bool] {
	return MatchMedia(env, media.QueryMobile)
}

// IsTablet reports a viewport between 769px and 1024px wide.
func IsTablet(env media.Environment) *reactive.Signal[bool] {
	return MatchMedia(env, media.QueryTablet)
}

// IsDesktop reports a viewport at least 1025px wide.
func IsDesktop(env media.Environment) *reactive.Signal[bool] {
	return MatchMedia(env, media.QueryDesktop)
}

// PrefersDark reports a dark color-scheme preference.
func PrefersDark(env media.Environment) *reactive.Signal[bool] {
	return MatchMedia(env, media.QueryDark)
}

// PrefersReducedMotion reports a reduced-motion preference.
func PrefersReducedMotion(env media.Environment) *reactive.Signal[bool] {
	return MatchMedia(env, media.QueryReducedMotion)
}

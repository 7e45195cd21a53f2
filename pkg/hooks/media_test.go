package hooks

import (
	"testing"

	"github.com/jrc1883/elshaddai-hooks/pkg/media"
	"github.com/jrc1883/elshaddai-hooks/pkg/reactive"
)

func inScope(t *testing.T) *reactive.Scope {
	t.Helper()
	scope := reactive.NewScope(nil, reactive.Immediate())
	t.Cleanup(scope.Dispose)
	return scope
}

func TestMatchMediaInitialEvaluation(t *testing.T) {
	env := media.NewSim(media.State{Width: 1200, Height: 800})
	scope := inScope(t)

	var mobile, desktop *reactive.Signal[bool]
	scope.Run(func() {
		mobile = MatchMedia(env, media.QueryMobile)
		desktop = MatchMedia(env, media.QueryDesktop)
	})

	if mobile.Peek() {
		t.Error("1200px viewport reported as mobile")
	}
	if !desktop.Peek() {
		t.Error("1200px viewport not reported as desktop")
	}
}

func TestMatchMediaFollowsChanges(t *testing.T) {
	env := media.NewSim(media.State{Width: 1200, Height: 800})
	scope := inScope(t)

	var mobile *reactive.Signal[bool]
	scope.Run(func() {
		mobile = MatchMedia(env, media.QueryMobile)
	})

	if mobile.Peek() {
		t.Fatal("initially matching")
	}

	env.Resize(500, 800)
	if !mobile.Peek() {
		t.Error("resize to 500px not reflected")
	}

	env.Resize(900, 800)
	if mobile.Peek() {
		t.Error("resize to 900px not reflected")
	}
}

func TestMatchMediaDisposeReleasesSubscription(t *testing.T) {
	env := media.NewSim(media.State{Width: 1200, Height: 800})
	scope := reactive.NewScope(nil, reactive.Immediate())

	var mobile *reactive.Signal[bool]
	scope.Run(func() {
		mobile = MatchMedia(env, media.QueryMobile)
	})
	scope.Dispose()

	env.Resize(500, 800)
	if mobile.Peek() {
		t.Error("disposed tracker still follows the environment")
	}
}

func TestMatchMediaLegacyEnvironment(t *testing.T) {
	env := media.NewLegacySim(media.State{Width: 1200, Height: 800})
	scope := reactive.NewScope(nil, reactive.Immediate())

	var mobile *reactive.Signal[bool]
	scope.Run(func() {
		mobile = MatchMedia(env, media.QueryMobile)
	})

	if mobile.Peek() {
		t.Fatal("initially matching")
	}
	env.Resize(500, 800)
	if !mobile.Peek() {
		t.Error("legacy notification not reflected")
	}

	// Dispose goes through RemoveListener on the legacy path.
	scope.Dispose()
	env.Resize(1200, 800)
	if !mobile.Peek() {
		t.Error("disposed tracker still follows the legacy environment")
	}
}

func TestMatchMediaSignalResubscribesOnQueryChange(t *testing.T) {
	env := media.NewSim(media.State{Width: 500, Height: 800})
	scope := inScope(t)

	query := reactive.NewSignal(media.QueryMobile)
	var matches *reactive.Signal[bool]
	scope.Run(func() {
		matches = MatchMediaSignal(env, query)
	})

	if !matches.Peek() {
		t.Fatal("500px viewport not matching the mobile query")
	}

	// New query identity: immediate re-evaluation against the new query.
	query.Set(media.QueryDesktop)
	if matches.Peek() {
		t.Error("500px viewport matching the desktop query")
	}

	// The old query's subscription must be gone: crossing the mobile
	// boundary is irrelevant now, crossing the desktop one is not.
	env.Resize(700, 800)
	if matches.Peek() {
		t.Error("change on the abandoned query leaked through")
	}
	env.Resize(1200, 800)
	if !matches.Peek() {
		t.Error("change on the current query not reflected")
	}
}

func TestBreakpointHelpers(t *testing.T) {
	env := media.NewSim(media.State{Width: 900, Height: 800})
	scope := inScope(t)

	var mobile, tablet, desktop *reactive.Signal[bool]
	scope.Run(func() {
		mobile = IsMobile(env)
		tablet = IsTablet(env)
		desktop = IsDesktop(env)
	})

	if mobile.Peek() || !tablet.Peek() || desktop.Peek() {
		t.Errorf("900px viewport = mobile %v, tablet %v, desktop %v",
			mobile.Peek(), tablet.Peek(), desktop.Peek())
	}

	env.Resize(1100, 800)
	if mobile.Peek() || tablet.Peek() || !desktop.Peek() {
		t.Errorf("1100px viewport = mobile %v, tablet %v, desktop %v",
			mobile.Peek(), tablet.Peek(), desktop.Peek())
	}
}

func TestPreferenceHelpers(t *testing.T) {
	env := media.NewSim(media.State{Width: 1200, Height: 800})
	scope := inScope(t)

	var dark, reduced *reactive.Signal[bool]
	scope.Run(func() {
		dark = PrefersDark(env)
		reduced = PrefersReducedMotion(env)
	})

	if dark.Peek() || reduced.Peek() {
		t.Fatal("default preferences reported as dark/reduced")
	}

	env.SetColorScheme("dark")
	if !dark.Peek() {
		t.Error("dark preference not reflected")
	}

	env.SetReducedMotion(true)
	if !reduced.Peek() {
		t.Error("reduced-motion preference not reflected")
	}
}

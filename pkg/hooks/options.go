package hooks

import (
	"github.com/rs/zerolog"

	"github.com/jrc1883/elshaddai-hooks/pkg/timer"
)

type config struct {
	scheduler timer.Scheduler
	log       zerolog.Logger
}

// Option configures a hook.
type Option func(*config)

// WithScheduler sets the timer scheduler used for delayed work.
// Default: the system clock.
func WithScheduler(s timer.Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithLogger sets the logger for absorbed failures. Hooks never surface
// errors to callers; the logger is the only place they are visible.
// Default: no-op.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		scheduler: timer.System(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

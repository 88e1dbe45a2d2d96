package messaging

import (
	"context"
	"log/slog"
)

// FanOut publishes to a primary publisher and mirrors to secondary ones.
// Only the primary's error is returned; mirror failures are logged.
type FanOut struct {
	primary Publisher
	mirrors []Publisher
	logger  *slog.Logger
}

func NewFanOut(logger *slog.Logger, primary Publisher, mirrors ...Publisher) *FanOut {
	return &FanOut{primary: primary, mirrors: mirrors, logger: logger}
}

func (f *FanOut) Publish(ctx context.Context, event Event) error {
	err := f.primary.Publish(ctx, event)
	for _, m := range f.mirrors {
		if mErr := m.Publish(ctx, event); mErr != nil {
			f.logger.WarnContext(ctx, "Failed to mirror event", "subject", event.Subject(), "error", mErr)
		}
	}
	return err
}

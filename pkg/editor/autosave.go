package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// StartAutosave saves the current module on schedule, a robfig/cron spec such as "@every 1m".
// The returned function stops the schedule and waits for a running save.
func StartAutosave(ctx context.Context, e *Editor, schedule string) (func(), error) {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(schedule, func() {
		if err := e.Save(ctx); err != nil {
			e.logger.ErrorContext(ctx, "Autosave failed", slog.String("module", e.Current()), slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}

	c.Start()
	e.logger.InfoContext(ctx, "Autosave scheduled", slog.String("schedule", schedule))

	return func() {
		<-c.Stop().Done()
	}, nil
}

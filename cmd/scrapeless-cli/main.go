package main

import (
	"context"
	"log/slog"
	"time"

	"scrapeless-go/cmd/scrapeless-cli/commands"
	"scrapeless-go/lib/serviceutil"
	"scrapeless-go/lib/telemetry"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	telemetry.InitSlog(false)
	t, err := telemetry.SetupFromEnv(ctx, "scrapeless-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := t.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()
	if t.MeterProvider != nil {
		telemetry.InstrumentPerfStats(ctx, 15*time.Second)
	}

	commands.ExecuteContext(ctx)
}

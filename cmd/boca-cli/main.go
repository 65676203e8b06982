package main

import (
	"context"

	"bocateam/cmd/boca-cli/commands"
	"bocateam/lib/osutil"
	"bocateam/lib/telemetry"
)

func main() {
	ctx, cancel := osutil.SignalContext()
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "boca-cli")
	if err != nil {
		osutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}

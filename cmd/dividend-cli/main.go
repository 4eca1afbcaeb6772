package main

import (
	"context"

	"dividend-backend/cmd/dividend-cli/commands"
	"dividend-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "dividend-cli")
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}

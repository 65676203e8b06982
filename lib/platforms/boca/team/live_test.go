package team

import (
	"context"
	"testing"

	devenv "bocateam/dev/env"
	"bocateam/lib/platforms/boca/core"
	"bocateam/lib/secretstore"
	"bocateam/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// TestLive runs the read-only getters against the server configured in
// dev/.state/boca_config.json.
func TestLive(t *testing.T) {
	cfg, err := devenv.GetStateConfig[devenv.BocaTestConfig](devenv.BocaTestConfigFile)
	if err != nil || cfg.Ip == "" {
		t.Skip("no live BOCA server configured")
	}

	cleanup := telemetry.SetupForTesting(t, "test:boca/team/live")
	defer cleanup()

	ctx := context.Background()
	client := NewClient(core.NewSession(secretstore.NewMemory(), core.Options{}))
	err = client.ValidateAndStore(ctx, core.Credentials{
		Ip:       cfg.Ip,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	require.NoError(t, err)
	defer client.LogOut(ctx)

	problems, err := client.GetProblems(ctx)
	require.NoError(t, err)
	t.Logf("%d problems", len(problems))

	page, err := client.GetRunsPage(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, page.Languages)
	t.Logf("remaining time %q, %d runs", page.RemainingTime, len(page.Runs))

	_, err = client.GetClarifications(ctx)
	require.NoError(t, err)
	_, err = client.GetScore(ctx)
	require.NoError(t, err)

	if cfg.SubmitProblem == "" {
		return
	}
	err = client.SubmitClarification(ctx, cfg.SubmitProblem, "live test clarification, please ignore")
	require.NoError(t, err)
}

package core

import (
	"context"
	"path/filepath"
	"testing"

	"bocateam/lib/platforms/boca/bocatest"
	"bocateam/lib/testutil"

	"github.com/stretchr/testify/require"
)

// a new process opening the same store picks up the credentials and session
func TestSessionSurvivesReopen(t *testing.T) {
	server := bocatest.NewServer("team1", "secret")
	defer server.Close()
	server.SetPage("team/problem.php", problemsPage)

	path := filepath.Join(t.TempDir(), "secrets.db")
	ctx := context.Background()
	creds := Credentials{Ip: server.Ip(), Username: "team1", Password: "secret"}

	store, cleanup := testutil.SetupStore(t, testutil.StoreParams{Name: "boca/core", Path: path})
	err := NewSession(store, Options{}).ValidateAndStore(ctx, creds)
	require.NoError(t, err)
	cleanup()

	store, cleanup = testutil.SetupStore(t, testutil.StoreParams{Name: "boca/core", Path: path})
	defer cleanup()
	session := NewSession(store, Options{})

	stored, err := session.Credentials(ctx)
	require.NoError(t, err)
	require.Equal(t, creds.Username, stored.Username)
	require.Equal(t, creds.Ip, stored.Ip)

	page, err := session.FetchAuthenticated(ctx, "team/problem.php")
	require.NoError(t, err)
	require.Equal(t, problemsPage, page.Html)
	require.Equal(t, 1, server.LoginAttempts)
}

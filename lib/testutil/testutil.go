package testutil

import (
	"fmt"
	"testing"

	devenv "bocateam/dev/env"
	"bocateam/lib/secretstore"
	"bocateam/lib/telemetry"
)

type StoreParams struct {
	Name string
	// if unspecified, it will use `:memory:`, paths may start with <dev_state>
	Path string
}

// SetupStore sets up telemetry for the test and opens a sqlite secret store, the
// returned function closes both.
func SetupStore(t testing.TB, params StoreParams) (secretstore.SQLite, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	path := ":memory:"
	if params.Path != "" && params.Path != ":memory:" {
		var err error
		path, err = devenv.ResolvePath(params.Path)
		if err != nil {
			t.Fatal(err)
		}
	}
	store, err := secretstore.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}

	return store, func() {
		store.Close()
		cleanup()
	}
}

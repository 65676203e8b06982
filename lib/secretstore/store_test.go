package secretstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, ok, err := store.Get(ctx, KeyCredentials)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyCredentials, `{"ip":"10.0.0.1"}`))
	value, ok, err := store.Get(ctx, KeyCredentials)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"ip":"10.0.0.1"}`, value)

	require.NoError(t, store.Set(ctx, KeyCredentials, `{"ip":"10.0.0.2"}`))
	value, _, err = store.Get(ctx, KeyCredentials)
	require.NoError(t, err)
	require.Equal(t, `{"ip":"10.0.0.2"}`, value)

	require.NoError(t, store.Set(ctx, KeyCookieJar, "jar"))
	require.NoError(t, store.Delete(ctx, KeyCredentials))
	_, ok, err = store.Get(ctx, KeyCredentials)
	require.NoError(t, err)
	require.False(t, ok)

	// other keys are untouched and deleting twice is fine
	require.NoError(t, store.Delete(ctx, KeyCredentials))
	value, ok, err = store.Get(ctx, KeyCookieJar)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "jar", value)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	testStore(t, store)
}

package globals

import (
	"context"

	"bocateam/lib/platforms/boca/team"
	"bocateam/lib/secretstore"
)

type key struct{}

type Value struct {
	Client *team.Client
	Store  secretstore.SQLite
	// Json prints results as json instead of tables.
	Json bool
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}

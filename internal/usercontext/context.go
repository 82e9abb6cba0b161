// Package usercontext carries the authenticated account through
// request-scoped contexts.
package usercontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey struct{}

func WithUserID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(contextKey{}).(snowflake.ID)
	return id, ok
}

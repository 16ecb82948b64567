// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice

import (
	"context"

	"storj.io/tracmeta/metadata"
)

// Caller identifies who performs a request. Trusted callers are internal
// platform components and may write every object type; everything else is
// limited to the client-writable types.
type Caller struct {
	ID      string
	Name    string
	Trusted bool
}

type callerContextKey struct{}

// WithCaller attaches the caller identity to the context. The transport
// boundary authenticates the caller and calls this before handing the
// request to a service.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFrom extracts the caller identity from the context.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(Caller)
	return caller, ok
}

func requireCaller(ctx context.Context) (Caller, error) {
	caller, ok := CallerFrom(ctx)
	if !ok || caller.ID == "" {
		return Caller{}, metadata.ErrInputValidation.New("caller identity missing")
	}
	return caller, nil
}

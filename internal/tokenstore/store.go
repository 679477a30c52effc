// Package tokenstore persists the opaque credential blob for each session.
package tokenstore

import (
	"context"
	"encoding/json"
)

// Store is the token-store collaborator consumed by the lifecycle
// controller. A nil blob from GetToken means the session has never been
// paired; that is a valid state, not an error.
type Store interface {
	GetToken(ctx context.Context, session string) (json.RawMessage, error)
	SetToken(ctx context.Context, session string, data json.RawMessage) error
	RemoveToken(ctx context.Context, session string) error
}

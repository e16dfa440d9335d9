package services

import (
	"context"
	"time"

	"devroots-sacco/internal/pkg/pagination"
)

// Cache is the read-through cache used for aggregate views.
// Get reports whether the key was present and decodes it into dest.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Actor identifies who performed a mutation
type Actor struct {
	UserID   uint
	Username string
	IP       string
}

// Label is the name recorded in audit fields
func (a Actor) Label() string {
	if a.Username == "" {
		return "system"
	}
	return a.Username
}

// SystemActor is used by scheduled jobs and seeders
var SystemActor = Actor{Username: "system"}

// Page is an offset/limit window
type Page = pagination.Page

// nopCache is used when no cache is configured
type nopCache struct{}

// NewNopCache returns a Cache that stores nothing
func NewNopCache() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (nopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, ...string) error               { return nil }

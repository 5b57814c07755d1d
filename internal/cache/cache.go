// Package cache wraps the volatile cache store. The cache is never a
// source of truth: reads that fail surface as Unavailable so callers can
// fall open to the database, and write errors are reported, not fatal.
package cache

import (
	"context"
	"time"
)

// ResultKind distinguishes a miss from a broken cache. Callers treat
// Unavailable like a miss for control flow but may log it.
type ResultKind int

const (
	Found ResultKind = iota
	Miss
	Unavailable
)

// Result is the outcome of a cache read.
type Result struct {
	Kind  ResultKind
	Value string
	Err   error
}

func (r Result) Found() bool { return r.Kind == Found }

// Store is the minimal cache surface the application needs: TTL'd string
// entries plus sets used as secondary indexes.
type Store interface {
	Get(ctx context.Context, key string) Result
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}

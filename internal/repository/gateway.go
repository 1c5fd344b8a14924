// Package repository is the storage boundary of the deal engine.
//
// A Gateway is a generic keyed record store with list-by-owner semantics.
// Store layers typed access, schema checks and the write retry policy on top.
//
// Concurrency: writes are whole-record upserts with no version check. Two
// sessions modifying the same owner's records concurrently resolve as
// last-write-wins. Callers that need stronger guarantees must serialize
// mutations themselves; the lifecycle engine does so per deal ID within one
// process only.
package repository

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names a record family.
type Collection string

const (
	CollectionSets     Collection = "sets"
	CollectionProjects Collection = "projects"
	CollectionSellers  Collection = "sellers"
)

// ErrNotFound is returned by Gateway.Get for a missing ID.
var ErrNotFound = errors.New("record not found")

// Record is the storage envelope. Body is the JSON encoded domain object.
type Record struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"ownerId"`
	Body    json.RawMessage `json:"body"`
}

// Gateway is the contract a backing store must satisfy.
type Gateway interface {
	ListByOwner(ctx context.Context, c Collection, ownerID string) ([]Record, error)
	// GetAll is the privileged path; callers enforce authorization.
	GetAll(ctx context.Context, c Collection) ([]Record, error)
	Get(ctx context.Context, c Collection, id string) (Record, error)
	// Put upserts by ID.
	Put(ctx context.Context, c Collection, rec Record) error
	// Remove is a no-op for a missing ID.
	Remove(ctx context.Context, c Collection, id string) error
}

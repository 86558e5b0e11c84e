package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kyleking/gh-metahistory/internal/result"
)

// Repository is a typed view over a Store. None of its methods panic or
// return bare errors: failures are carried in the Result or Option.
type Repository[T any] interface {
	// Read returns Ok(None) when the key is absent, Ok(Some(v)) when it
	// holds a decodable value, and Err otherwise.
	Read(ctx context.Context, key string) result.Result[result.Option[T]]
	// Write stores value under key. It returns None on success.
	Write(ctx context.Context, key string, value T) result.Option[error]
	// Delete removes key. It returns Some(ErrNotFound) if the key was absent.
	Delete(ctx context.Context, key string) result.Option[error]
}

// JSONRepository stores values as JSON documents.
type JSONRepository[T any] struct {
	store Store
}

// NewRepository creates a JSON-encoding repository over store.
func NewRepository[T any](store Store) *JSONRepository[T] {
	return &JSONRepository[T]{store: store}
}

// Read fetches and decodes the value at key.
func (r *JSONRepository[T]) Read(ctx context.Context, key string) result.Result[result.Option[T]] {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return result.Ok(result.None[T]())
	}
	if err != nil {
		return result.Err[result.Option[T]](err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return result.Err[result.Option[T]](fmt.Errorf("failed to decode %s: %w", key, err))
	}
	return result.Ok(result.Some(v))
}

// Write encodes value and stores it at key.
func (r *JSONRepository[T]) Write(ctx context.Context, key string, value T) result.Option[error] {
	raw, err := json.Marshal(value)
	if err != nil {
		return result.Some[error](fmt.Errorf("failed to encode %s: %w", key, err))
	}
	return result.FromError(r.store.Put(ctx, key, raw))
}

// Delete removes key from the underlying store.
func (r *JSONRepository[T]) Delete(ctx context.Context, key string) result.Option[error] {
	return result.FromError(r.store.Delete(ctx, key))
}

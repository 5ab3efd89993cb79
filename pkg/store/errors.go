package store

import "errors"

// Sentinel errors shared by every adapter implementation.
//
// Adapters wrap these with key context so callers can both match the class
// of failure and see which key was involved:
//
//	if !exists {
//	    return fmt.Errorf("item %s: %w", key, store.ErrItemNotFound)
//	}
//
// Callers match with errors.Is:
//
//	it, err := s.Peek(ctx, key)
//	if errors.Is(err, store.ErrItemNotFound) {
//	    // miss
//	}
var (
	// ErrItemNotFound indicates no item is stored under the requested key
	// where absence is not tolerated.
	//
	// Returned by:
	//   - Peek on a miss
	//   - Size on a miss
	//
	// Get never returns it (a miss triggers creation) and Delete treats
	// absence as success.
	ErrItemNotFound = errors.New("item not found")

	// ErrMalformedItem indicates the persisted bytes for a key are not
	// valid JSON. This is distinct from a miss: the key exists but its
	// stored representation cannot be decoded.
	ErrMalformedItem = errors.New("malformed item")

	// ErrInvalidKey indicates the key was rejected before touching the
	// backend. The filesystem adapter rejects keys that cannot be used
	// safely as a filename (empty, containing a path separator or NUL,
	// or dot-prefixed and so colliding with its bookkeeping names).
	ErrInvalidKey = errors.New("invalid key")
)

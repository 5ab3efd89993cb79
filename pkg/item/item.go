// Package item defines the JSON-serializable payload stored for a key.
//
// An Item is an opaque JSON object from the storage layer's point of view,
// except for two fields every adapter owns:
//
//   - "fskey": a content-derived identifier, the hex-encoded RIPEMD-160
//     digest of the raw key. Adapters set it on every put. It lives inside
//     the persisted document and is independent of how the adapter locates
//     the item (filename, database key, object key).
//   - "shard": raw shard payload bytes. Adapters never persist this field;
//     it is stripped before serialization even if the caller supplied one.
//
// Everything else in an Item (contract records, audit fields, arbitrary
// nested structures) is passed through unchanged.
package item

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // fskey format is fixed to RIPEMD-160
)

// Field names owned by the storage layer.
const (
	FskeyField = "fskey"
	ShardField = "shard"
)

// Item is an opaque JSON object stored under a key.
type Item map[string]any

// New returns an empty item, used by create-on-miss gets.
func New() Item {
	return Item{}
}

// Fskey computes the content-derived identifier for a key: the hex-encoded
// RIPEMD-160 digest of the raw key bytes (40 hex characters).
func Fskey(key string) string {
	h := ripemd160.New()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize returns a copy of the item in its persisted form for the given
// key: the shard field is removed and fskey is set. The receiver is not
// modified, so callers keep their original item untouched.
func (i Item) Normalize(key string) Item {
	out := make(Item, len(i)+1)
	for k, v := range i {
		if k == ShardField {
			continue
		}
		out[k] = v
	}
	out[FskeyField] = Fskey(key)
	return out
}

// Fskey returns the item's fskey field, or "" if absent or not a string.
func (i Item) Fskey() string {
	s, _ := i[FskeyField].(string)
	return s
}

// Marshal encodes the item as UTF-8 JSON, the on-disk representation shared
// by every adapter.
func (i Item) Marshal() ([]byte, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted item from JSON.
func Unmarshal(data []byte) (Item, error) {
	var i Item
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return i, nil
}

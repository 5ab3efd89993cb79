package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFskey(t *testing.T) {
	// Published RIPEMD-160 test vectors.
	cases := []struct {
		key  string
		want string
	}{
		{"", "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{"a", "0bdc9d2d256b3ee9daae347be6f4dc835a467ffe"},
		{"abc", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
		{"message digest", "5d0689ef49d2fae572b881b123a85ffa21595f36"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Fskey(tc.key), "fskey(%q)", tc.key)
		assert.Len(t, Fskey(tc.key), 40)
	}
}

func TestNormalizeSetsFskey(t *testing.T) {
	i := Item{"foo": 1}
	n := i.Normalize("somekey")

	assert.Equal(t, Fskey("somekey"), n.Fskey())
	assert.Equal(t, 1, n["foo"])
}

func TestNormalizeStripsShard(t *testing.T) {
	i := Item{"foo": "bar", ShardField: "ZZZ"}
	n := i.Normalize("x")

	_, present := n[ShardField]
	assert.False(t, present, "shard must never survive normalization")

	// The caller's item is left untouched.
	assert.Equal(t, "ZZZ", i[ShardField])
	_, present = i[FskeyField]
	assert.False(t, present, "normalization must not mutate the source item")
}

func TestRoundTripNestedFields(t *testing.T) {
	i := Item{
		"contracts": map[string]any{
			"nodeid": map[string]any{"duration": float64(3600), "renewed": true},
		},
		"trees": []any{"leaf1", "leaf2"},
		"meta":  nil,
	}

	data, err := i.Normalize("k").Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, i["contracts"], got["contracts"])
	assert.Equal(t, i["trees"], got["trees"])
	assert.Contains(t, got, "meta")
	assert.Equal(t, Fskey("k"), got.Fskey())
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	require.Error(t, err)
}

func TestNewIsEmpty(t *testing.T) {
	assert.Empty(t, New())
}

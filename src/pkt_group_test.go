package packetutils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func xorChunks(chunks ...[]byte) []byte {
	var parity = make([]byte, len(chunks[0]))
	for _, c := range chunks {
		for i, b := range c {
			parity[i] ^= b
		}
	}
	return parity
}

func TestGroupComplete(t *testing.T) {
	var g = new_erasure_group(4, 2)
	var chunks = [][]byte{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	for i, c := range chunks {
		assert.True(t, g.store_data(i, c))
	}
	assert.True(t, g.store_parity(4, xorChunks(chunks...)))

	var r = g.flush(false, false)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, r.out)
	assert.Equal(t, 0, r.recovered)
	assert.Equal(t, 0, r.lost)
	assert.True(t, g.empty())
}

func TestGroupRecoversOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var size = rapid.IntRange(1, 20).Draw(t, "size")
		var count = rapid.IntRange(1, size).Draw(t, "count")
		var payload_len = rapid.IntRange(1, 16).Draw(t, "payload_len")
		var chunks = rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), payload_len, payload_len), count, count).Draw(t, "chunks")
		var missing = rapid.IntRange(0, count-1).Draw(t, "missing")

		var g = new_erasure_group(size, payload_len)
		for i, c := range chunks {
			if i != missing {
				g.store_data(i, c)
			}
		}
		g.store_parity(count, xorChunks(chunks...))

		// Only a group of group_size slots can be closed by a later group.
		var r = g.flush(count == size && rapid.Bool().Draw(t, "full"), false)
		assert.Equal(t, bytes.Join(chunks, nil), r.out)
		assert.Equal(t, 1, r.recovered)
		assert.Equal(t, 0, r.lost)
	})
}

func TestGroupTwoMissing(t *testing.T) {
	var chunks = [][]byte{{1, 2}, {3, 4}, {5, 6}, {7, 8}}

	var g = new_erasure_group(4, 2)
	g.store_data(0, chunks[0])
	g.store_data(3, chunks[3])
	g.store_parity(4, xorChunks(chunks...))

	var r = g.flush(true, false)
	assert.Equal(t, []byte{1, 2, 7, 8}, r.out)
	assert.Equal(t, 0, r.recovered)
	assert.Equal(t, 2, r.lost)

	// Same again with the gaps kept.
	g.store_data(0, chunks[0])
	g.store_data(3, chunks[3])
	g.store_parity(4, xorChunks(chunks...))

	r = g.flush(true, true)
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 0, 7, 8}, r.out)
	assert.Equal(t, 2, r.lost)
}

func TestGroupPartialWithParity(t *testing.T) {
	// Last group of a stream: two data slots, parity says so.
	var g = new_erasure_group(4, 2)
	g.store_data(0, []byte{1, 2})
	g.store_data(1, []byte{3, 4})
	g.store_parity(2, xorChunks([]byte{1, 2}, []byte{3, 4}))

	var r = g.flush(false, true)
	assert.Equal(t, []byte{1, 2, 3, 4}, r.out)
	assert.Equal(t, 0, r.lost)
}

func TestGroupParityLost(t *testing.T) {
	// Closed by a later group: it had 4 slots, so slot 3 is lost.
	var g = new_erasure_group(4, 2)
	g.store_data(0, []byte{1, 2})
	g.store_data(1, []byte{3, 4})
	g.store_data(2, []byte{5, 6})

	var r = g.flush(true, false)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, r.out)
	assert.Equal(t, 1, r.lost)

	// Closed by END: no way to know, so what arrived is all there was.
	g.store_data(0, []byte{1, 2})
	g.store_data(2, []byte{5, 6})

	r = g.flush(false, true)
	assert.Equal(t, []byte{1, 2, 0, 0, 5, 6}, r.out)
	assert.Equal(t, 1, r.lost)
}

func TestGroupOnlyParity(t *testing.T) {
	// Parity alone rebuilds a one slot group.
	var g = new_erasure_group(4, 2)
	g.store_parity(1, []byte{9, 9})

	var r = g.flush(false, false)
	assert.Equal(t, []byte{9, 9}, r.out)
	assert.Equal(t, 1, r.recovered)
}

func TestGroupParityCountWrongInFullGroup(t *testing.T) {
	var chunks = [][]byte{{1, 2}, {3, 4}, {5, 6}}

	// Slot byte 3 received as 2.  All data is still delivered.
	var g = new_erasure_group(3, 2)
	for i, c := range chunks {
		g.store_data(i, c)
	}
	g.store_parity(2, xorChunks(chunks...))

	var r = g.flush(true, false)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, r.out)
	assert.Equal(t, 0, r.lost)
	assert.True(t, r.bad_parity)

	// And with a slot missing the parity is not used to rebuild it.
	g.store_data(0, chunks[0])
	g.store_data(2, chunks[2])
	g.store_parity(2, xorChunks(chunks...))

	r = g.flush(true, true)
	assert.Equal(t, []byte{1, 2, 0, 0, 5, 6}, r.out)
	assert.Equal(t, 0, r.recovered)
	assert.Equal(t, 1, r.lost)
}

func TestGroupParityCountBelowData(t *testing.T) {
	// Last group: slot 2 arrived, so parity claiming 2 slots is wrong.
	var g = new_erasure_group(4, 2)
	g.store_data(0, []byte{1, 2})
	g.store_data(2, []byte{5, 6})
	g.store_parity(2, []byte{9, 9})

	var r = g.flush(false, false)
	assert.Equal(t, []byte{1, 2, 5, 6}, r.out)
	assert.Equal(t, 0, r.recovered)
	assert.Equal(t, 1, r.lost)
	assert.True(t, r.bad_parity)
}

func TestGroupRejectsBadSlots(t *testing.T) {
	var g = new_erasure_group(4, 2)
	assert.False(t, g.store_data(4, []byte{1, 2}))
	assert.False(t, g.store_data(-1, []byte{1, 2}))
	assert.False(t, g.store_data(0, []byte{1}))
	assert.False(t, g.store_parity(0, []byte{1, 2}))
	assert.False(t, g.store_parity(5, []byte{1, 2}))
	assert.True(t, g.empty())

	var r = g.flush(true, true)
	assert.Empty(t, r.out)
}

func TestGroupLargest(t *testing.T) {
	var g = new_erasure_group(PKT_MAX_GROUP_SIZE, 1)
	for i := range PKT_MAX_GROUP_SIZE {
		assert.True(t, g.store_data(i, []byte{byte(i)}))
	}
	assert.True(t, g.has(PKT_MAX_GROUP_SIZE-1))
	assert.False(t, g.has(PKT_MAX_GROUP_SIZE))

	var r = g.flush(true, false)
	assert.Len(t, r.out, PKT_MAX_GROUP_SIZE)
	assert.Equal(t, byte(200), r.out[200])
}

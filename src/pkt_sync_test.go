package packetutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFindSyncClean(t *testing.T) {
	var ff = NewFrameFormat(DefaultConfig())
	var buf = appendFrame(t, ff, &Frame{Type: FRAME_TRAINING, GroupID: 0, SlotID: 0, Payload: make([]byte, 10)})

	var m, found = pkt_find_sync(buf, DEFAULT_SYNC_WORD, DEFAULT_SYNC_TOLERANCE)
	require.True(t, found)
	assert.Equal(t, SyncMatch{Offset: 16, Shift: 0, Distance: 0}, m)
}

func TestFindSyncNone(t *testing.T) {
	var _, found = pkt_find_sync(make([]byte, 100), DEFAULT_SYNC_WORD, DEFAULT_SYNC_TOLERANCE)
	assert.False(t, found)

	_, found = pkt_find_sync([]byte{0xde, 0xad, 0xbe}, DEFAULT_SYNC_WORD, 0)
	assert.False(t, found)
}

func TestFindSyncTolerance(t *testing.T) {
	var ff = NewFrameFormat(DefaultConfig())
	var buf = appendFrame(t, ff, &Frame{Type: FRAME_TRAINING, GroupID: 0, SlotID: 0, Payload: make([]byte, 10)})

	// Three wrong bits in the sync word.
	buf[16] ^= 0x80
	buf[17] ^= 0x01
	buf[19] ^= 0x10

	var _, found = pkt_find_sync(buf, DEFAULT_SYNC_WORD, 2)
	assert.False(t, found)

	var m, found3 = pkt_find_sync(buf, DEFAULT_SYNC_WORD, 3)
	require.True(t, found3)
	assert.Equal(t, SyncMatch{Offset: 16, Shift: 0, Distance: 3}, m)
}

func TestFindSyncAnyShiftWithErrors(t *testing.T) {
	var ff = NewFrameFormat(DefaultConfig())

	rapid.Check(t, func(t *rapid.T) {
		var buf = appendFrame(t, ff, &Frame{
			Type:    FRAME_DATA,
			GroupID: rapid.Byte().Draw(t, "group"),
			SlotID:  rapid.Byte().Draw(t, "slot"),
			Payload: rapid.SliceOfN(rapid.Byte(), 10, 10).Draw(t, "payload"),
		})

		var tolerance = rapid.IntRange(0, 3).Draw(t, "tolerance")
		var errs = rapid.SliceOfNDistinct(rapid.IntRange(0, 31), 0, tolerance, rapid.ID[int]).Draw(t, "errors")
		for _, bit := range errs {
			buf[16+bit/8] ^= 0x80 >> (bit % 8)
		}

		var shift = rapid.IntRange(0, 7).Draw(t, "shift")
		var fill = rapid.Byte().Draw(t, "fill")
		var shifted = pkt_shift_right(buf, shift, fill)

		var m, found = pkt_find_sync(shifted, DEFAULT_SYNC_WORD, tolerance)
		require.True(t, found)
		assert.Equal(t, SyncMatch{Offset: 16, Shift: shift, Distance: len(errs)}, m)
	})
}

func TestShiftLeftUndoesShiftRight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		var shift = rapid.IntRange(0, 7).Draw(t, "shift")

		var shifted = pkt_shift_right(data, shift, rapid.Byte().Draw(t, "fill"))
		if shift > 0 {
			assert.Len(t, shifted, len(data)+1)
		}

		var back = pkt_shift_left(shifted, shift)
		assert.Equal(t, data, back[:len(data)])
	})
}

func TestShiftLeftShort(t *testing.T) {
	assert.Nil(t, pkt_shift_left([]byte{0xff}, 3))
	assert.Equal(t, []byte{0xf8}, pkt_shift_left([]byte{0xff, 0x00}, 3))
}

package packetutils

/********************************************************************************
 *
 * Purpose:     Locate the sync word in a raw receive buffer.
 *
 * Description:	The modem and bit packer in front of us can slip the clock,
 *		so the sync word need not start on a byte boundary.  Every
 *		bit offset is tried.  A candidate matches when it differs
 *		from the sync word in no more than "tolerance" bits, which
 *		rides through bit errors in the sync word itself.
 *
 *		The most recent 32 bits are kept in an accumulator, most
 *		recent in the LSB, and compared with a popcount.
 *
 *******************************************************************************/

import (
	"math/bits"
)

type SyncMatch struct {
	Offset   int // Byte offset of the first sync bit.
	Shift    int // Bit position within that byte, 0 = MSB.
	Distance int // Number of sync bits received wrong.
}

/***********************************************************************************
 *
 * Name:        pkt_find_sync
 *
 * Purpose:     Find the first bit position where the sync word matches.
 *
 * Inputs:      data		- Raw bytes, MSB first.
 *		sync_word	- 32 bit pattern.
 *		tolerance	- Maximum number of differing bits.
 *
 * Returns:	Match and true, or false if no position qualifies.
 *
 ***********************************************************************************/

func pkt_find_sync(data []byte, sync_word uint32, tolerance int) (SyncMatch, bool) {
	const syncBits = PKT_SYNC_SIZE * 8

	if len(data) < PKT_SYNC_SIZE {
		return SyncMatch{}, false //nolint:exhaustruct
	}

	var acc uint32
	for i := range len(data) * 8 {
		var bit = (data[i/8] >> (7 - i%8)) & 1
		acc = (acc << 1) | uint32(bit)

		if i < syncBits-1 {
			continue
		}

		var distance = bits.OnesCount32(acc ^ sync_word)
		if distance <= tolerance {
			var start = i - (syncBits - 1)
			return SyncMatch{Offset: start / 8, Shift: start % 8, Distance: distance}, true
		}
	}

	return SyncMatch{}, false //nolint:exhaustruct
}

/***********************************************************************************
 *
 * Name:        pkt_shift_left
 *
 * Purpose:     Produce a byte aligned view starting "shift" bits into data.
 *
 * Returns:	New slice.  When shift is non-zero the trailing partial
 *		byte is dropped so the result is one byte shorter.
 *
 ***********************************************************************************/

func pkt_shift_left(data []byte, shift int) []byte {
	if shift == 0 {
		return append([]byte(nil), data...)
	}
	if len(data) < 2 {
		return nil
	}

	var out = make([]byte, len(data)-1)
	for i := range out {
		out[i] = data[i]<<shift | data[i+1]>>(8-shift)
	}
	return out
}

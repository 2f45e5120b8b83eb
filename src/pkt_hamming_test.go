package packetutils

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestHammingEncodeTable(t *testing.T) {
	assert.Equal(t, byte(0x00), pkt_hamming_encode[0x0])
	assert.Equal(t, byte(0x0f), pkt_hamming_encode[0x1])
	assert.Equal(t, byte(0x39), pkt_hamming_encode[0x7])
	assert.Equal(t, byte(0x7f), pkt_hamming_encode[0xF])

	// Systematic: data nibble is the top 4 of the 7 bits.
	for nibble := byte(0); nibble < 16; nibble++ {
		assert.Equal(t, nibble, pkt_hamming_encode[nibble]>>3)
	}
}

func TestHammingMinimumDistance(t *testing.T) {
	for a := range 16 {
		for b := a + 1; b < 16; b++ {
			var d = bits.OnesCount8(pkt_hamming_encode[a] ^ pkt_hamming_encode[b])
			assert.GreaterOrEqual(t, d, 3, "codewords for %d and %d", a, b)
		}
	}
}

func TestHammingDecodeTable(t *testing.T) {
	for nibble := byte(0); nibble < 16; nibble++ {
		assert.Equal(t, nibble, hamming74_decode(hamming74_encode(nibble)))
	}

	// Every possible reception decodes to a codeword at most one bit away.
	for v := range 128 {
		var nibble = pkt_hamming_decode[v]
		assert.LessOrEqual(t, bits.OnesCount8(byte(v)^pkt_hamming_encode[nibble]), 1, "reception 0x%02x", v)
	}
}

func TestHammingSingleBitCorrection(t *testing.T) {
	for nibble := byte(0); nibble < 16; nibble++ {
		var codeword = hamming74_encode(nibble)
		for bit := 0; bit < 7; bit++ {
			assert.Equal(t, nibble, hamming74_decode(codeword^(1<<bit)),
				"nibble %d, bit %d flipped", nibble, bit)
		}
		// The unused top bit is ignored.
		assert.Equal(t, nibble, hamming74_decode(codeword|0x80))
	}
}

func TestFECRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "payload")
		var fec = pkt_fec_encode(payload)
		assert.Len(t, fec, 2*len(payload))

		// One bit error in every codeword is still fine.
		for i := range fec {
			fec[i] ^= 1 << rapid.IntRange(0, 6).Draw(t, "bit")
		}
		assert.Equal(t, payload, pkt_fec_decode(fec))
	})
}

func TestFECHighNibbleFirst(t *testing.T) {
	assert.Equal(t, []byte{0x0f, 0x7f}, pkt_fec_encode([]byte{0x1f}))
}

package packetutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestScramblerFirstBytes(t *testing.T) {
	var s = NewScrambler()
	var got = make([]byte, 8)
	for i := range got {
		got[i] = s.NextByte()
	}
	assert.Equal(t, []byte{0x87, 0x79, 0x64, 0x81, 0x13, 0x17, 0x5b, 0x06}, got)
}

func TestScramblerPeriod(t *testing.T) {
	// 7 bit maximal length LFSR: 127 bits, so also 127 bytes.
	var s = NewScrambler()
	var stream = make([]byte, 3*127)
	s.Process(stream)

	for i := range 2 * 127 {
		assert.Equal(t, stream[i], stream[i+127], "byte %d", i)
	}
	assert.NotEqual(t, stream[0:63], stream[63:126])
}

func TestScramblerReset(t *testing.T) {
	var s = NewScrambler()
	var first = s.NextByte()
	s.NextByte()
	s.Reset()
	assert.Equal(t, first, s.NextByte())
}

func TestScramblerSelfInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var in = rapid.SliceOf(rapid.Byte()).Draw(t, "in")
		var s = NewScrambler()

		var scrambled = pkt_scramble_block(s, in)
		assert.Len(t, scrambled, len(in))

		var back = pkt_scramble_block(s, scrambled)
		assert.Equal(t, append([]byte{}, in...), append([]byte{}, back...))
	})
}

func TestScrambleBlockLeavesInputAlone(t *testing.T) {
	var in = []byte{1, 2, 3, 4}
	pkt_scramble_block(NewScrambler(), in)
	assert.Equal(t, []byte{1, 2, 3, 4}, in)
}

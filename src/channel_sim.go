package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Imitate a poor radio channel for testing.
 *
 * Description:	Frames can be dropped, random bits flipped inside each
 *		frame, and the whole stream slipped by some bits so that
 *		nothing is byte aligned any more.
 *
 *		Random numbers come from a simple LCG with a fixed seed so
 *		that a given configuration always damages the stream in
 *		exactly the same way.
 *
 *------------------------------------------------------------------*/

const MY_RAND_MAX = 0x7fffffff

type ChannelSim struct {
	FrameLen int

	DropFrames  []int // Frame indexes to remove.
	DropPercent int   // Also remove this percentage at random.
	BitErrors   int   // Flip this many random bits in each frame.
	BitSlip     int   // Prepend this many (0-7) random bits.

	seed int32
}

func NewChannelSim(frame_len int, seed int32) *ChannelSim {
	return &ChannelSim{ //nolint:exhaustruct
		FrameLen: frame_len,
		seed:     seed,
	}
}

func (c *ChannelSim) rand() int32 {
	c.seed = int32((uint32(c.seed)*1103515245 + 12345) & MY_RAND_MAX) //nolint:gosec
	return c.seed
}

func (c *ChannelSim) randn(n int) int {
	return int(c.rand()) % n
}

// Apply returns a damaged copy of a stream of whole frames.
func (c *ChannelSim) Apply(stream []byte) []byte {
	var drop = make(map[int]bool, len(c.DropFrames))
	for _, i := range c.DropFrames {
		drop[i] = true
	}

	var out = make([]byte, 0, len(stream)+1)
	for i := 0; i*c.FrameLen < len(stream); i++ {
		var frame = stream[i*c.FrameLen : min(len(stream), (i+1)*c.FrameLen)]

		if drop[i] || (c.DropPercent > 0 && c.randn(100) < c.DropPercent) {
			continue
		}

		var damaged = append([]byte(nil), frame...)
		for range c.BitErrors {
			var bit = c.randn(len(damaged) * 8)
			damaged[bit/8] ^= 0x80 >> (bit % 8)
		}
		out = append(out, damaged...)
	}

	if c.BitSlip > 0 {
		out = pkt_shift_right(out, c.BitSlip%8, byte(c.rand()))
	}
	return out
}

// pkt_shift_right delays data by "shift" bits, filling the gap from the top bits of fill.
// Result is one byte longer.
func pkt_shift_right(data []byte, shift int, fill byte) []byte {
	if shift == 0 {
		return append([]byte(nil), data...)
	}

	var out = make([]byte, len(data)+1)
	var carry = fill >> (8 - shift)
	for i, b := range data {
		out[i] = carry<<(8-shift) | b>>shift
		carry = b & (1<<shift - 1)
	}
	out[len(data)] = carry << (8 - shift)
	return out
}

// RandomBytes makes test data from the same generator.
func (c *ChannelSim) RandomBytes(n int) []byte {
	var data = make([]byte, n)
	for i := range data {
		data[i] = byte(c.rand() >> 16)
	}
	return data
}

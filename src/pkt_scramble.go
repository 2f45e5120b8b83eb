package packetutils

/*--------------------------------------------------------------------------------
 *
 * Purpose:	Additive scrambler used for channel whitening.
 *
 * Description:	A 7 bit LFSR, x^7 + x^4 + 1, generates the whitening stream.
 *		The output bit is the low bit of the register; the feedback
 *		is bit 6 xor bit 3.  Eight steps make one byte, first bit
 *		in the MSB position.
 *
 *		The same operation scrambles and descrambles as long as both
 *		ends reset to the seed at the same point.  Every frame resets
 *		at the start of its type byte so frames never chain.
 *
 *--------------------------------------------------------------------------------*/

const PKT_SCRAMBLE_SEED byte = 0x7f

type Scrambler struct {
	seed  byte
	state byte
}

func NewScrambler() *Scrambler {
	var s = &Scrambler{seed: PKT_SCRAMBLE_SEED} //nolint:exhaustruct
	s.Reset()
	return s
}

func (s *Scrambler) Reset() {
	s.state = s.seed
}

func (s *Scrambler) NextByte() byte {
	var out byte
	for range 8 {
		var feedback = ((s.state >> 6) ^ (s.state >> 3)) & 1
		out = (out << 1) | (s.state & 1)
		s.state = ((s.state << 1) & 0x7f) | feedback
	}
	return out
}

// Process XORs data with the whitening stream, in place, continuing from
// the current state.  Callers wanting a fresh frame call Reset first.
func (s *Scrambler) Process(data []byte) {
	for i := range data {
		data[i] ^= s.NextByte()
	}
}

/*--------------------------------------------------------------------------------
 *
 * Function:	pkt_scramble_block
 *
 * Purpose:	Scramble or descramble one frame region.
 *
 * Inputs:	s	- Scrambler, reset here.
 *		in	- Bytes of the region.
 *
 * Returns:	New slice, same length.  Input is not modified.
 *
 *--------------------------------------------------------------------------------*/

func pkt_scramble_block(s *Scrambler, in []byte) []byte {
	var out = make([]byte, len(in))
	copy(out, in)
	s.Reset()
	s.Process(out)
	return out
}

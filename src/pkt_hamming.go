package packetutils

/*-------------------------------------------------------------
 *
 * Purpose:	Hamming (7,4) forward error correction for the payload.
 *
 * Description:	Systematic form.  The codeword is the data nibble in
 *		the upper 4 bits followed by 3 parity bits.  Parity rows
 *		for data bits d3..d0 are 110, 101, 011, 111.
 *
 *		Every payload byte is sent as two codewords, high nibble
 *		first.  Any single bit error in a codeword is corrected.
 *		Two or more bit errors decode to some other nibble; the
 *		frame CRC catches that.
 *
 *--------------------------------------------------------------*/

// Maps 4-bit data nibble to 7-bit Hamming codeword.
var pkt_hamming_encode = [16]byte{
	0x00, 0x0f, 0x13, 0x1c, 0x25, 0x2a, 0x36, 0x39,
	0x46, 0x49, 0x55, 0x5a, 0x63, 0x6c, 0x70, 0x7f,
}

// Maps any 7-bit reception to the nearest codeword's nibble.
// Radius 1 spheres around the 16 codewords cover all 128 values exactly once.
var pkt_hamming_decode [128]byte

func init() {
	for nibble, codeword := range pkt_hamming_encode {
		pkt_hamming_decode[codeword] = byte(nibble) //nolint:gosec
		for bit := range 7 {
			pkt_hamming_decode[codeword^(1<<bit)] = byte(nibble) //nolint:gosec
		}
	}
}

func hamming74_encode(nibble byte) byte {
	return pkt_hamming_encode[nibble&0x0f]
}

func hamming74_decode(codeword byte) byte {
	return pkt_hamming_decode[codeword&0x7f]
}

/*-------------------------------------------------------------
 *
 * Name:	pkt_fec_encode
 *
 * Purpose:	Expand payload bytes into codeword pairs.
 *
 * Returns:	2 * len(payload) bytes.
 *
 *--------------------------------------------------------------*/

func pkt_fec_encode(payload []byte) []byte {
	var out = make([]byte, 0, 2*len(payload))
	for _, b := range payload {
		out = append(out, hamming74_encode(b>>4), hamming74_encode(b&0x0f))
	}
	return out
}

/*-------------------------------------------------------------
 *
 * Name:	pkt_fec_decode
 *
 * Purpose:	Collapse codeword pairs back into payload bytes.
 *
 * Inputs:	fec	- Even number of received codeword bytes.
 *
 * Returns:	len(fec)/2 bytes.  A trailing odd byte is ignored.
 *
 *--------------------------------------------------------------*/

func pkt_fec_decode(fec []byte) []byte {
	var out = make([]byte, len(fec)/2)
	for i := range out {
		out[i] = hamming74_decode(fec[2*i])<<4 | hamming74_decode(fec[2*i+1])
	}
	return out
}

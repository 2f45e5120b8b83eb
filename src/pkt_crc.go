package packetutils

/*-------------------------------------------------------------
 *
 * Purpose:	CRC-32 over the decoded payload.
 *
 * 		The CRC is a final validity check after Hamming decoding,
 *		catching the cases where two or more bit errors in one
 *		codeword silently produce a wrong nibble.
 *
 *		Standard IEEE 802.3 polynomial, reflected, init and
 *		final xor 0xffffffff.  Sent big endian.
 *
 *--------------------------------------------------------------*/

import (
	"encoding/binary"
	"hash/crc32"
)

const PKT_CRC_SIZE = 4

func pkt_crc_calc(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

func pkt_crc_encode(crc uint32) [PKT_CRC_SIZE]byte {
	var encoded [PKT_CRC_SIZE]byte
	binary.BigEndian.PutUint32(encoded[:], crc)
	return encoded
}

func pkt_crc_decode(encoded []byte) uint32 {
	return binary.BigEndian.Uint32(encoded)
}

func pkt_crc_check(payload []byte, encoded []byte) bool {
	return pkt_crc_calc(payload) == pkt_crc_decode(encoded)
}

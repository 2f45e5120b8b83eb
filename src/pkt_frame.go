package packetutils

/*-------------------------------------------------------------
 *
 * Purpose:	Byte layout of one frame.
 *
 * Description:
 *
 *	[preamble: preamble_len bytes, receiver discards]
 *	[sync word: 4 bytes, big endian]
 *	[type: 1][group: 1][slot: 1]			\
 *	[FEC payload: 2 * payload_len bytes]		 > scrambled, reset per frame
 *	[CRC-32 of decoded payload: 4 bytes, big endian]/
 *	[padding: zero fill to the fixed frame length]
 *
 *	With the defaults: 16 + 4 + 27 + 1 = 48 bytes.
 *
 *--------------------------------------------------------------*/

import (
	"encoding/binary"
	"errors"
	"fmt"
)

type FrameType byte

const (
	FRAME_TRAINING FrameType = 0x00
	FRAME_DATA     FrameType = 0x01
	FRAME_START    FrameType = 0x02
	FRAME_END      FrameType = 0x03
	FRAME_PARITY   FrameType = 0x05
)

func (t FrameType) String() string {
	switch t {
	case FRAME_TRAINING:
		return "TRAINING"
	case FRAME_DATA:
		return "DATA"
	case FRAME_START:
		return "START"
	case FRAME_END:
		return "END"
	case FRAME_PARITY:
		return "PARITY"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(t))
	}
}

var (
	ErrShortFrame  = errors.New("not enough bytes for a complete frame")
	ErrCRCMismatch = errors.New("CRC-32 mismatch")
)

type Frame struct {
	Type    FrameType
	GroupID byte
	SlotID  byte
	Payload []byte
}

type FrameFormat struct {
	payloadLen int
	preamble   []byte
	sync       [PKT_SYNC_SIZE]byte
	regionLen  int
	frameLen   int
}

func NewFrameFormat(c *Config) *FrameFormat {
	var ff = &FrameFormat{
		payloadLen: c.PayloadLen,
		preamble:   make([]byte, c.PreambleLen),
		regionLen:  c.RegionLen(),
		frameLen:   c.FrameLen(),
	}
	for i := range ff.preamble {
		ff.preamble[i] = c.PreambleByte
	}
	binary.BigEndian.PutUint32(ff.sync[:], c.SyncWord)
	return ff
}

func (ff *FrameFormat) FrameLen() int {
	return ff.frameLen
}

// ParsedLen is how much of a frame, counted from the first sync byte, must be present to parse it.
func (ff *FrameFormat) ParsedLen() int {
	return PKT_SYNC_SIZE + ff.regionLen
}

/*-------------------------------------------------------------
 *
 * Name:	Append
 *
 * Purpose:	Serialize one frame onto the end of dst.
 *
 * Inputs:	s	- Scrambler, reset at the start of the region.
 *		f	- Frame.  Payload must be exactly payload_len.
 *
 * Returns:	dst extended by frame_len bytes.
 *
 *--------------------------------------------------------------*/

func (ff *FrameFormat) Append(dst []byte, s *Scrambler, f *Frame) ([]byte, error) {
	if len(f.Payload) != ff.payloadLen {
		return dst, fmt.Errorf("payload is %d bytes, frame carries %d", len(f.Payload), ff.payloadLen)
	}

	var region = make([]byte, 0, ff.regionLen)
	region = append(region, byte(f.Type), f.GroupID, f.SlotID)
	region = append(region, pkt_fec_encode(f.Payload)...)
	var crc = pkt_crc_encode(pkt_crc_calc(f.Payload))
	region = append(region, crc[:]...)

	s.Reset()
	s.Process(region)

	var start = len(dst)
	dst = append(dst, ff.preamble...)
	dst = append(dst, ff.sync[:]...)
	dst = append(dst, region...)
	for len(dst)-start < ff.frameLen {
		dst = append(dst, 0)
	}

	return dst, nil
}

/*-------------------------------------------------------------
 *
 * Name:	Parse
 *
 * Purpose:	Extract a frame from a receive buffer.
 *
 * Inputs:	s		- Scrambler, reset at the start of the region.
 *		buf		- Raw received bytes.
 *		sync_offset	- Byte offset where the sync word starts.
 *		bit_shift	- 0 to 7 bits further into that byte.
 *
 * Returns:	The frame and the number of bytes of buf used up to
 *		the end of the CRC.
 *
 * Errors:	ErrShortFrame if buf does not reach the end of the CRC.
 *		ErrCRCMismatch, with the frame as decoded, if the CRC
 *		does not match.  Consumed is 0 for both.
 *
 *--------------------------------------------------------------*/

func (ff *FrameFormat) Parse(s *Scrambler, buf []byte, sync_offset int, bit_shift int) (*Frame, int, error) {
	if sync_offset < 0 || sync_offset >= len(buf) {
		return nil, 0, ErrShortFrame
	}

	var aligned = pkt_shift_left(buf[sync_offset:], bit_shift)
	if len(aligned) < ff.ParsedLen() {
		return nil, 0, ErrShortFrame
	}

	var region = pkt_scramble_block(s, aligned[PKT_SYNC_SIZE:ff.ParsedLen()])

	var fecEnd = PKT_HEADER_SIZE + 2*ff.payloadLen
	var f = &Frame{
		Type:    FrameType(region[0]),
		GroupID: region[1],
		SlotID:  region[2],
		Payload: pkt_fec_decode(region[PKT_HEADER_SIZE:fecEnd]),
	}

	if !pkt_crc_check(f.Payload, region[fecEnd:]) {
		return f, 0, ErrCRCMismatch
	}

	// Bits used = sync_offset*8 + bit_shift + parsed*8, rounded down to whole bytes.
	return f, sync_offset + ff.ParsedLen(), nil
}

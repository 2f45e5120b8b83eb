package packetutils

// Counters kept by the encoder and decoder.  Observability only; nothing
// here feeds back into framing decisions.

import (
	"fmt"
)

type DecoderState int

const (
	DECODER_TRAINING DecoderState = iota // Waiting for START.
	DECODER_RECEIVING
	DECODER_FINISHED
)

func (s DecoderState) String() string {
	switch s {
	case DECODER_TRAINING:
		return "TRAINING"
	case DECODER_RECEIVING:
		return "RECEIVING"
	case DECODER_FINISHED:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

type DecoderStatus struct {
	State DecoderState

	Training  int // Good TRAINING frames.
	Start     int // Good START frames.
	Data      int // Good DATA frames while active.
	Parity    int // Good PARITY frames while active.
	End       int // Good END frames.
	Recovered int // Data slots rebuilt from parity.
	CRCFail   int // Sync found but CRC did not match.
	LostSlots int // Data slots that could not be rebuilt.
	Ignored   int // Good CRC but not usable: inactive, unknown type, bad slot.

	BytesOut int // Recovered bytes handed to the caller.
}

func (s DecoderStatus) String() string {
	return fmt.Sprintf("[RX] %s | train: %d  start: %d  data: %d  parity: %d  recovered: %d  crc_fail: %d  lost: %d",
		s.State, s.Training, s.Start, s.Data, s.Parity, s.Recovered, s.CRCFail, s.LostSlots)
}

type EncoderState int

const (
	ENCODER_TRAINING EncoderState = iota
	ENCODER_START
	ENCODER_DATA
	ENCODER_END
	ENCODER_FINISHED
)

func (s EncoderState) String() string {
	switch s {
	case ENCODER_TRAINING:
		return "TRAINING"
	case ENCODER_START:
		return "START"
	case ENCODER_DATA:
		return "DATA"
	case ENCODER_END:
		return "END"
	case ENCODER_FINISHED:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

type EncoderStatus struct {
	State EncoderState

	Training int
	Start    int
	Data     int
	Parity   int
	End      int
	Groups   int // Groups closed by a PARITY frame.

	BytesIn int // Payload bytes taken, sentinel not included.
}

func (s EncoderStatus) String() string {
	return fmt.Sprintf("[TX] %s | train: %d  start: %d  data: %d  parity: %d  end: %d",
		s.State, s.Training, s.Start, s.Data, s.Parity, s.End)
}

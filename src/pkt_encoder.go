package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Turn a byte stream into a sequence of frames.
 *
 * Description:	States, in order, never going back:
 *
 *		TRAINING	training_count frames so the receiver's AGC
 *				and clock recovery can settle.
 *
 *		START		start_count frames.  The receiver only starts
 *				accepting data after one of these.
 *
 *		DATA		One DATA frame per payload chunk.  After
 *				group_size chunks, a PARITY frame with the
 *				XOR of the group.  The end of stream sentinel
 *				flushes parity for a partly filled group.
 *
 *		END		end_count frames.
 *
 *		FINISHED	Everything else is swallowed.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"io"

	"github.com/charmbracelet/log"
)

type Encoder struct {
	config    *Config
	format    *FrameFormat
	scrambler *Scrambler
	sentinel  []byte
	logger    *log.Logger

	state         EncoderState
	training_left int
	start_left    int
	end_left      int

	group_id   byte
	slot_count int
	parity     []byte

	status EncoderStatus
}

func NewEncoder(c *Config) (*Encoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var e = &Encoder{ //nolint:exhaustruct
		config:        c,
		format:        NewFrameFormat(c),
		scrambler:     NewScrambler(),
		sentinel:      c.EndSentinel(),
		logger:        component_logger("tx"),
		state:         ENCODER_TRAINING,
		training_left: c.TrainingCount,
		start_left:    c.StartCount,
		end_left:      c.EndCount,
		parity:        make([]byte, c.PayloadLen),
	}
	return e, nil
}

func (e *Encoder) Status() EncoderStatus {
	var s = e.status
	s.State = e.state
	return s
}

func (e *Encoder) Finished() bool {
	return e.state == ENCODER_FINISHED
}

// FrameLen is the size of every frame Work produces.
func (e *Encoder) FrameLen() int {
	return e.format.FrameLen()
}

// EndSentinel is the chunk to feed after the last data chunk.
func (e *Encoder) EndSentinel() []byte {
	return append([]byte(nil), e.sentinel...)
}

/*------------------------------------------------------------------
 *
 * Name:	Work
 *
 * Purpose:	Advance the encoder as far as the buffers allow.
 *
 * Inputs:	in	- Payload chunks of payload_len bytes.  Only whole
 *			  chunks are taken; a trailing partial chunk is left
 *			  for the next call.
 *
 *		out	- Space for frames.  Only whole frames are written.
 *
 * Returns:	Bytes of in consumed and bytes of out written.
 *		err is io.EOF once the last END frame has been written;
 *		the counts are still valid on that call.
 *
 * Description:	Never blocks.  During TRAINING and START no input is
 *		needed, so in may be empty.
 *
 *------------------------------------------------------------------*/

func (e *Encoder) Work(in []byte, out []byte) (int, int, error) {
	if e.state == ENCODER_FINISHED {
		return len(in), 0, io.EOF
	}

	var frame_len = e.format.FrameLen()
	var payload_len = e.config.PayloadLen
	var consumed = 0
	var produced = 0

	var emit = func(t FrameType, group byte, slot byte, payload []byte) {
		var f = &Frame{Type: t, GroupID: group, SlotID: slot, Payload: payload}
		// Payload length is fixed by construction so Append can't fail here.
		var buf, _ = e.format.Append(out[produced:produced], e.scrambler, f)
		produced += len(buf)
	}
	var room = func() bool {
		return produced+frame_len <= len(out)
	}

	if e.state == ENCODER_TRAINING {
		var zeros = make([]byte, payload_len)
		for e.training_left > 0 && room() {
			emit(FRAME_TRAINING, 0, 0, zeros)
			e.training_left--
			e.status.Training++
		}
		if e.training_left == 0 {
			e.state = ENCODER_START
		}
	}

	if e.state == ENCODER_START {
		var pattern = bytes.Repeat([]byte{0xaa}, payload_len)
		for e.start_left > 0 && room() {
			emit(FRAME_START, 0, 0, pattern)
			e.start_left--
			e.status.Start++
		}
		if e.start_left == 0 {
			e.state = ENCODER_DATA
			e.group_id = 1 // 0 is reserved for training and start.
			e.slot_count = 0
			clear(e.parity)
			e.logger.Info("Training/start finished. Transmitting data.")
		}
	}

	if e.state == ENCODER_DATA {
		for consumed+payload_len <= len(in) && room() {
			var chunk = in[consumed : consumed+payload_len]

			if bytes.Equal(chunk, e.sentinel) {
				if e.slot_count > 0 {
					e.emit_parity(emit)
				}
				consumed += payload_len
				e.state = ENCODER_END
				e.logger.Debug("End of stream sentinel", "group", e.group_id, "slots", e.slot_count)
				break
			}

			if e.slot_count == e.config.GroupSize {
				e.emit_parity(emit)
				e.next_group()
				continue // Same chunk becomes the first slot of the new group.
			}

			for i, b := range chunk {
				e.parity[i] ^= b
			}
			emit(FRAME_DATA, e.group_id, byte(e.slot_count), chunk) //nolint:gosec
			consumed += payload_len
			e.slot_count++
			e.status.Data++
			e.status.BytesIn += payload_len
		}
	}

	if e.state == ENCODER_END {
		var pattern = bytes.Repeat([]byte{0x55}, payload_len)
		for e.end_left > 0 && room() {
			emit(FRAME_END, 0, 0, pattern)
			e.end_left--
			e.status.End++
		}
		if e.end_left == 0 {
			e.state = ENCODER_FINISHED
			e.logger.Info("End signal sent. Transmission complete.", "frames", e.status.total())
		}
	}

	if e.state == ENCODER_FINISHED {
		return len(in), produced, io.EOF
	}

	return consumed, produced, nil
}

// Parity frame slot id is the number of data slots it covers.
func (e *Encoder) emit_parity(emit func(FrameType, byte, byte, []byte)) {
	emit(FRAME_PARITY, e.group_id, byte(e.slot_count), e.parity) //nolint:gosec
	e.status.Parity++
	e.status.Groups++
}

func (e *Encoder) next_group() {
	e.slot_count = 0
	e.group_id = byte((int(e.group_id) + 1) % 255)
	if e.group_id == 0 {
		e.group_id = 1
	}
	clear(e.parity)
}

func (s EncoderStatus) total() int {
	return s.Training + s.Start + s.Data + s.Parity + s.End
}

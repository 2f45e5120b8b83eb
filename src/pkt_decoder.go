package packetutils

/********************************************************************************
 *
 * Purpose:     Recover the byte stream from raw received bytes.
 *
 * Description:	The input is whatever the bit packer after the demodulator
 *		produced: preamble, noise, frames possibly starting at any
 *		bit offset, bit errors anywhere.
 *
 *		For each frame:
 *		- soft search for the sync word at every bit offset,
 *		- realign, descramble, Hamming decode, check CRC,
 *		- act on the frame type.
 *
 *		Nothing is accepted as data until a START frame is seen.
 *		DATA and PARITY frames collect in the erasure group buffer,
 *		which is flushed when the group id changes or END arrives.
 *
 *******************************************************************************/

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// FrameEvent describes one frame the decoder found, good or bad.
type FrameEvent struct {
	Type         FrameType
	GroupID      byte
	SlotID       byte
	CRCOK        bool
	SyncDistance int // Sync word bits received wrong.
	BitShift     int
}

type Decoder struct {
	config    *Config
	format    *FrameFormat
	scrambler *Scrambler
	logger    *log.Logger

	active   bool
	finished bool

	have_group bool
	group_id   byte
	group      *erasure_group

	pending []byte // Recovered bytes that did not fit in the caller's buffer yet.

	status DecoderStatus

	// OnFrame, if set, is called for every frame found, including CRC failures.
	OnFrame func(FrameEvent)
}

func NewDecoder(c *Config) (*Decoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var d = &Decoder{ //nolint:exhaustruct
		config:    c,
		format:    NewFrameFormat(c),
		scrambler: NewScrambler(),
		logger:    component_logger("rx"),
		group:     new_erasure_group(c.GroupSize, c.PayloadLen),
	}
	return d, nil
}

func (d *Decoder) Status() DecoderStatus {
	var s = d.status
	switch {
	case d.finished:
		s.State = DECODER_FINISHED
	case d.active:
		s.State = DECODER_RECEIVING
	default:
		s.State = DECODER_TRAINING
	}
	return s
}

func (d *Decoder) Active() bool {
	return d.active
}

func (d *Decoder) Finished() bool {
	return d.finished
}

// FrameLen is the minimum input Work needs before it will look for a frame.
func (d *Decoder) FrameLen() int {
	return d.format.FrameLen()
}

/***********************************************************************************
 *
 * Name:        Work
 *
 * Purpose:     Consume raw bytes, produce recovered bytes.
 *
 * Inputs:      in	- Raw received bytes.
 *		out	- Space for recovered bytes.
 *
 * Returns:	Bytes of in consumed, bytes of out written.
 *		err is io.EOF once END has been seen and everything has
 *		been handed over.  After that all input is swallowed.
 *
 * Description:	Never blocks and never waits for more input.
 *
 *		Less than one frame length of input: all consumed, nothing
 *		produced.
 *
 *		No sync word: all but the last frame length consumed, so a
 *		frame straddling the end can still be found next time.
 *
 *		Sync word but bad CRC: skip one byte past the candidate and
 *		search again, which tries the remaining bit offsets.
 *
 *		Sync word but the frame runs past the end: consume up to the
 *		sync word and wait for the rest.
 *
 ***********************************************************************************/

func (d *Decoder) Work(in []byte, out []byte) (int, int, error) {
	var produced = d.drain(out)

	if d.finished {
		if len(d.pending) > 0 {
			return len(in), produced, nil
		}
		return len(in), produced, io.EOF
	}

	var frame_len = d.format.FrameLen()
	if len(in) < frame_len {
		return len(in), produced, nil
	}

	var pos = 0
	for !d.finished && len(d.pending) < len(out)-produced+1 {
		var rest = in[pos:]
		if len(rest) < frame_len {
			break
		}

		var m, found = pkt_find_sync(rest, d.config.SyncWord, d.config.SyncTolerance)
		if !found {
			pos += max(1, len(rest)-frame_len)
			break
		}

		var f, used, err = d.format.Parse(d.scrambler, rest, m.Offset, m.Shift)

		if errors.Is(err, ErrShortFrame) {
			pos += m.Offset
			break
		}

		if errors.Is(err, ErrCRCMismatch) {
			d.status.CRCFail++
			d.event(f, false, m)
			if d.logger.GetLevel() <= log.DebugLevel {
				var end = min(len(rest), m.Offset+d.format.ParsedLen()+1)
				d.logger.Debug("CRC mismatch", "offset", pos+m.Offset, "shift", m.Shift, "sync_errors", m.Distance,
					"raw", "\n"+hex_dump(rest[m.Offset:end]))
			}
			pos += m.Offset + 1
			continue
		}

		pos += used
		d.event(f, true, m)
		d.process_frame(f)
	}

	produced += d.drain(out[produced:])

	return pos, produced, nil
}

func (d *Decoder) event(f *Frame, crc_ok bool, m SyncMatch) {
	if d.OnFrame == nil {
		return
	}
	d.OnFrame(FrameEvent{
		Type:         f.Type,
		GroupID:      f.GroupID,
		SlotID:       f.SlotID,
		CRCOK:        crc_ok,
		SyncDistance: m.Distance,
		BitShift:     m.Shift,
	})
}

func (d *Decoder) process_frame(f *Frame) {
	switch f.Type {
	case FRAME_TRAINING:
		d.status.Training++

	case FRAME_START:
		d.status.Start++
		if !d.active {
			d.logger.Info("Stream started.")
		}
		// Anything buffered from before the START is stale.
		d.active = true
		d.have_group = false
		d.group.clear()

	case FRAME_END:
		d.status.End++
		d.flush_group(false)
		d.active = false
		d.finished = true
		d.logger.Info("Stream ended.", "bytes", d.status.BytesOut, "recovered", d.status.Recovered, "lost", d.status.LostSlots)

	case FRAME_DATA, FRAME_PARITY:
		if !d.active {
			d.status.Ignored++
			return
		}

		if d.have_group && f.GroupID != d.group_id {
			d.flush_group(true)
		}
		d.have_group = true
		d.group_id = f.GroupID

		var stored bool
		if f.Type == FRAME_DATA {
			d.status.Data++
			stored = d.group.store_data(int(f.SlotID), f.Payload)
		} else {
			d.status.Parity++
			stored = d.group.store_parity(int(f.SlotID), f.Payload)
		}
		if !stored {
			d.status.Ignored++
			d.logger.Debug("Slot out of range", "type", f.Type, "group", f.GroupID, "slot", f.SlotID)
		}

	default:
		d.status.Ignored++
		d.logger.Debug("Unknown frame type", "type", f.Type)
	}
}

func (d *Decoder) flush_group(full bool) {
	var result = d.group.flush(full, d.config.FillGaps)

	d.status.Recovered += result.recovered
	d.status.LostSlots += result.lost
	d.status.BytesOut += len(result.out)

	if result.bad_parity {
		d.status.Ignored++
		d.logger.Debug("Parity slot count does not fit the group, not used", "group", d.group_id)
	}

	if result.recovered > 0 {
		d.logger.Debug("Rebuilt missing slot from parity", "group", d.group_id)
	}
	if result.lost > 0 {
		d.logger.Warn("Group incomplete, data lost", "group", d.group_id, "slots", result.lost, "filled", d.config.FillGaps)
	}

	d.pending = append(d.pending, result.out...)
}

func (d *Decoder) drain(out []byte) int {
	var n = copy(out, d.pending)
	d.pending = d.pending[n:]
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return n
}

// Drain flushes whatever group is buffered and returns all undelivered
// bytes.  For a host whose input ended without an END frame.
func (d *Decoder) Drain() []byte {
	if d.have_group {
		d.flush_group(false)
		d.have_group = false
	}
	var out = d.pending
	d.pending = nil
	return out
}

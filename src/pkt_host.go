package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Drive the encoder and decoder from ordinary readers
 *		and writers.
 *
 * Description:	The codec itself only knows Work(in, out).  Something
 *		has to own the buffers, keep calling, and decide when the
 *		stream is over.  In the radio flowgraph that is the
 *		scheduler; for files, pipes and serial ports it is this.
 *
 *		Each run gets a session id so log lines from concurrent
 *		tx and rx runs can be told apart.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	host_chunks_per_read = 64 // Payload chunks read at a time when encoding.
	host_frames_per_call = 64 // Frames of output space per Work call.
	host_window_frames   = 8  // Receive window, in frames, before calling the decoder.
)

var ErrStalled = errors.New("codec made no progress")

/*------------------------------------------------------------------
 *
 * Name:	EncodeStream
 *
 * Purpose:	Read all of r, write frames to w.
 *
 * Description:	The last partial chunk is zero padded.  At end of
 *		input the end of stream sentinel is fed so the encoder
 *		sends the final parity and the END frames.
 *
 *		progress, if not nil, is called after every Work call
 *		on this goroutine.
 *
 *------------------------------------------------------------------*/

func EncodeStream(ctx context.Context, enc *Encoder, r io.Reader, w io.Writer, progress func()) error {
	var logger = component_logger("tx").With("session", uuid.New().String())
	var payload_len = enc.config.PayloadLen

	var in []byte
	var eof = false
	var rbuf = make([]byte, host_chunks_per_read*payload_len)
	var out = make([]byte, host_frames_per_call*enc.FrameLen())

	logger.Debug("Encoding", "frame_len", enc.FrameLen(), "payload_len", payload_len)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !eof && len(in) < len(rbuf) {
			var n, err = r.Read(rbuf)
			in = append(in, rbuf[:n]...)
			if errors.Is(err, io.EOF) {
				eof = true
				if rem := len(in) % payload_len; rem != 0 {
					in = append(in, make([]byte, payload_len-rem)...)
				}
				in = append(in, enc.EndSentinel()...)
			} else if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
		}

		var consumed, produced, workErr = enc.Work(in, out)
		in = in[consumed:]

		if produced > 0 {
			if _, err := w.Write(out[:produced]); err != nil {
				return fmt.Errorf("writing frames: %w", err)
			}
		}

		if progress != nil {
			progress()
		}

		if errors.Is(workErr, io.EOF) {
			var s = enc.Status()
			logger.Info("Encoding complete", "bytes", s.BytesIn, "frames", s.total())
			return nil
		}

		if eof && consumed == 0 && produced == 0 {
			return ErrStalled
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	DecodeStream
 *
 * Purpose:	Read raw received bytes from r, write recovered bytes to w.
 *
 * Description:	Stops at the END frame, or at end of input in which
 *		case whatever is buffered is flushed best effort.
 *
 *		Input is collected until there are a few frames worth
 *		before calling the decoder, because the decoder throws
 *		away anything shorter than one frame.
 *
 *------------------------------------------------------------------*/

func DecodeStream(ctx context.Context, dec *Decoder, r io.Reader, w io.Writer, progress func()) error {
	var logger = component_logger("rx").With("session", uuid.New().String())
	var frame_len = dec.FrameLen()
	var window = host_window_frames * frame_len

	var in []byte
	var eof = false
	var stalled = false
	var rbuf = make([]byte, window)
	var out = make([]byte, 4*dec.config.GroupSize*dec.config.PayloadLen)

	var write = func(p []byte) error {
		if len(p) == 0 {
			return nil
		}
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Once END is seen don't wait on a live port for bytes nobody will send.
		var want_input = !eof && !dec.Finished()

		if want_input && (len(in) < window || stalled) {
			var n, err = r.Read(rbuf)
			in = append(in, rbuf[:n]...)
			if errors.Is(err, io.EOF) {
				eof = true
			} else if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
		}

		if want_input && len(in) < frame_len {
			continue
		}

		var consumed, produced, workErr = dec.Work(in, out)
		in = in[consumed:]
		stalled = consumed == 0 && produced == 0

		if err := write(out[:produced]); err != nil {
			return err
		}

		if progress != nil {
			progress()
		}

		if errors.Is(workErr, io.EOF) {
			logger.Debug("END frame seen")
			return nil
		}

		if eof && (len(in) == 0 || stalled) {
			logger.Info("Input ended without END frame, flushing")
			return write(dec.Drain())
		}
	}
}

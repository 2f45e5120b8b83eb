package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Wrap a file for transmission and unwrap it on receipt.
 *
 * Description:	The stream starts with an 8 byte header:
 *
 *			[signature: 4]	"VID\0", "IMG\0" or "FIL\0"
 *			[length: 4]	big endian, bytes of body that follow
 *
 *		The receiver uses the signature to pick a file name
 *		extension and the length to drop the zero padding that
 *		fills out the last payload chunk.
 *
 *		General files are compressed with zstd.  Images are
 *		re-encoded as JPEG at MEDIA_JPEG_QUALITY.  Video is
 *		assumed to be compressed already and goes as it is.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type MediaKind int

const (
	MEDIA_UNKNOWN MediaKind = iota
	MEDIA_VIDEO
	MEDIA_IMAGE
	MEDIA_FILE
)

const MEDIA_HEADER_SIZE = 8

const MEDIA_JPEG_QUALITY = 75

var media_signatures = map[MediaKind][4]byte{
	MEDIA_VIDEO: {'V', 'I', 'D', 0},
	MEDIA_IMAGE: {'I', 'M', 'G', 0},
	MEDIA_FILE:  {'F', 'I', 'L', 0},
}

var ErrUnknownMedia = errors.New("unknown media signature")

func (k MediaKind) String() string {
	switch k {
	case MEDIA_VIDEO:
		return "video"
	case MEDIA_IMAGE:
		return "image"
	case MEDIA_FILE:
		return "file"
	default:
		return "unknown"
	}
}

// Video containers the builtin mime table doesn't know without /etc/mime.types.
var media_video_exts = map[string]bool{".ts": true, ".mp4": true, ".mkv": true, ".h264": true, ".h265": true}

// MediaKindForName guesses from the file name extension.
func MediaKindForName(name string) MediaKind {
	var ext = strings.ToLower(filepath.Ext(name))
	var mt = mime.TypeByExtension(ext)
	switch {
	case media_video_exts[ext], strings.HasPrefix(mt, "video/"):
		return MEDIA_VIDEO
	case strings.HasPrefix(mt, "image/"):
		return MEDIA_IMAGE
	default:
		return MEDIA_FILE
	}
}

// WrapMedia builds header and body for one file's contents.
func WrapMedia(kind MediaKind, data []byte) ([]byte, error) {
	var sig, ok = media_signatures[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMedia, kind)
	}

	var body = data
	if kind == MEDIA_FILE {
		var enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		body = enc.EncodeAll(data, nil)
		enc.Close()
	}

	if len(body) > math.MaxUint32 {
		return nil, fmt.Errorf("media body of %d bytes is too large", len(body))
	}

	var out = make([]byte, MEDIA_HEADER_SIZE, MEDIA_HEADER_SIZE+len(body))
	copy(out[0:4], sig[:])
	binary.BigEndian.PutUint32(out[4:8], uint32(len(body))) //nolint:gosec
	return append(out, body...), nil
}

// media_jpeg decodes any image format we know and encodes it as JPEG.
// Transparency is dropped.
func media_jpeg(data []byte, quality int) ([]byte, error) {
	var img, format, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode %s as JPEG: %w", format, err)
	}
	return buf.Bytes(), nil
}

// ReadMediaFile loads and wraps a file, choosing the kind from its name.
// Images we can't decode are sent unchanged.
func ReadMediaFile(filename string) ([]byte, MediaKind, error) {
	var data, err = os.ReadFile(filename) //nolint:gosec
	if err != nil {
		return nil, MEDIA_UNKNOWN, err
	}
	var kind = MediaKindForName(filename)

	if kind == MEDIA_IMAGE {
		var logger = component_logger("media")
		var jpg, jpgErr = media_jpeg(data, MEDIA_JPEG_QUALITY)
		if jpgErr != nil {
			logger.Warn("Sending image as it is", "file", filename, "err", jpgErr)
		} else {
			logger.Info("Transcoded image to JPEG", "file", filename, "from", len(data), "to", len(jpg))
			data = jpg
		}
	}

	var wrapped, wrapErr = WrapMedia(kind, data)
	return wrapped, kind, wrapErr
}

/*------------------------------------------------------------------
 *
 * Name:	MediaSink
 *
 * Purpose:	io.Writer that receives a wrapped stream and saves the
 *		file it carries.
 *
 * Description:	Bytes are held until the header is complete.  Then the
 *		output file is created, with ".ts" or ".jpg" added when
 *		the given name has no extension.  Body bytes beyond the
 *		length in the header are padding and are dropped.
 *		Compressed bodies are decompressed on Close.
 *
 *		An unrecognised signature is written out raw, header and
 *		all, with nothing trimmed.
 *
 *------------------------------------------------------------------*/

type MediaSink struct {
	filename string
	header   []byte
	kind     MediaKind

	fp        *os.File
	name      string
	remaining int // -1 for no limit.
	body      bytes.Buffer

	written int
}

func NewMediaSink(filename string) *MediaSink {
	return &MediaSink{filename: filename, remaining: -1} //nolint:exhaustruct
}

func (s *MediaSink) Name() string {
	return s.name
}

func (s *MediaSink) Kind() MediaKind {
	return s.kind
}

func (s *MediaSink) Written() int {
	return s.written
}

func (s *MediaSink) Write(p []byte) (int, error) {
	var total = len(p)

	if s.fp == nil {
		var need = MEDIA_HEADER_SIZE - len(s.header)
		var n = min(need, len(p))
		s.header = append(s.header, p[:n]...)
		p = p[n:]
		if len(s.header) < MEDIA_HEADER_SIZE {
			return total, nil
		}
		if err := s.setup(); err != nil {
			return 0, err
		}
	}

	if s.remaining >= 0 {
		p = p[:min(len(p), s.remaining)]
		s.remaining -= len(p)
	}

	if s.kind == MEDIA_FILE {
		s.body.Write(p)
		return total, nil
	}

	var n, err = s.fp.Write(p)
	s.written += n
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *MediaSink) setup() error {
	var sig [4]byte
	copy(sig[:], s.header[0:4])

	s.kind = MEDIA_UNKNOWN
	for kind, known := range media_signatures {
		if sig == known {
			s.kind = kind
		}
	}

	s.name = s.filename
	if filepath.Ext(s.filename) == "" {
		switch s.kind {
		case MEDIA_VIDEO:
			s.name += ".ts"
		case MEDIA_IMAGE:
			s.name += ".jpg"
		}
	}

	var fp, err = os.Create(s.name)
	if err != nil {
		return err
	}
	s.fp = fp

	var logger = component_logger("media")
	if s.kind == MEDIA_UNKNOWN {
		logger.Warn("Unknown signature, saving raw", "signature", fmt.Sprintf("%q", sig[:]), "file", s.name)
		var n, werr = s.fp.Write(s.header)
		s.written += n
		return werr
	}

	s.remaining = int(binary.BigEndian.Uint32(s.header[4:8]))
	logger.Info("Receiving", "kind", s.kind, "file", s.name, "length", s.remaining)
	return nil
}

func (s *MediaSink) Close() error {
	if s.fp == nil {
		return nil
	}
	defer s.fp.Close()

	if s.kind == MEDIA_FILE {
		var dec, err = zstd.NewReader(nil)
		if err != nil {
			return err
		}
		defer dec.Close()

		var data, decErr = dec.DecodeAll(s.body.Bytes(), nil)
		if decErr != nil {
			return fmt.Errorf("decompressing %s: %w", s.name, decErr)
		}
		var n, werr = s.fp.Write(data)
		s.written += n
		if werr != nil {
			return werr
		}
	}

	component_logger("media").Info("Finished", "file", s.name, "bytes", s.written)
	return nil
}

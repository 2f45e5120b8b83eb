package packetutils

import (
	"bytes"
	"context"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRoundTrip(t *testing.T) {
	var c = testConfig()
	var data = NewChannelSim(0, 42).RandomBytes(1234)

	var enc, _ = NewEncoder(c)
	var frames bytes.Buffer
	var calls = 0
	require.NoError(t, EncodeStream(context.Background(), enc, bytes.NewReader(data), &frames, func() { calls++ }))
	assert.Positive(t, calls)
	assert.True(t, enc.Finished())
	assert.Zero(t, frames.Len()%enc.FrameLen())

	// 124 chunks, the last one padded.
	assert.Equal(t, 124, enc.Status().Data)
	assert.Equal(t, 1240, enc.Status().BytesIn)

	var dec, _ = NewDecoder(c)
	var recovered bytes.Buffer
	require.NoError(t, DecodeStream(context.Background(), dec, bytes.NewReader(frames.Bytes()), &recovered, nil))

	assert.True(t, dec.Finished())
	assert.Len(t, recovered.Bytes(), 1240)
	assert.Equal(t, data, recovered.Bytes()[:1234])
	assert.Equal(t, make([]byte, 6), recovered.Bytes()[1234:])
}

func TestStreamOneByteAtATime(t *testing.T) {
	var c = testConfig()
	var data = []byte("The quick brown fox jumps over the lazy dog.")

	var enc, _ = NewEncoder(c)
	var frames bytes.Buffer
	require.NoError(t, EncodeStream(context.Background(), enc, iotest.OneByteReader(bytes.NewReader(data)), &frames, nil))

	var sim = NewChannelSim(enc.FrameLen(), 7)
	sim.BitSlip = 5
	sim.DropFrames = []int{6} // Slot 1 of the first group.

	var dec, _ = NewDecoder(c)
	var recovered bytes.Buffer
	var reader = iotest.OneByteReader(bytes.NewReader(sim.Apply(frames.Bytes())))
	require.NoError(t, DecodeStream(context.Background(), dec, reader, &recovered, nil))

	assert.True(t, loopback_match(data, recovered.Bytes(), c.PayloadLen))
	assert.Equal(t, 1, dec.Status().Recovered)
}

func TestDecodeStreamWithoutEnd(t *testing.T) {
	var c = testConfig()
	var data = chunks(c, 6)
	var stream = encodeAll(t, c, data)

	var dec, _ = NewDecoder(c)
	var recovered bytes.Buffer
	require.NoError(t, DecodeStream(context.Background(), dec, bytes.NewReader(stream[:12*c.FrameLen()]), &recovered, nil))

	assert.False(t, dec.Finished())
	assert.Equal(t, data, recovered.Bytes())
}

func TestDecodeStreamStopsAtEnd(t *testing.T) {
	var c = testConfig()
	var stream = encodeAll(t, c, chunks(c, 2))

	// Anything after the END frames is never read.
	var trailer = bytes.Repeat([]byte{0x42}, 10000)
	var reader = bytes.NewReader(append(append([]byte{}, stream...), trailer...))

	var dec, _ = NewDecoder(c)
	var recovered bytes.Buffer
	require.NoError(t, DecodeStream(context.Background(), dec, reader, &recovered, nil))
	assert.Equal(t, chunks(c, 2), recovered.Bytes())
	assert.Positive(t, reader.Len())
}

func TestStreamCancelled(t *testing.T) {
	var c = testConfig()
	var ctx, cancel = context.WithCancel(context.Background())
	cancel()

	var enc, _ = NewEncoder(c)
	var err = EncodeStream(ctx, enc, bytes.NewReader([]byte("data")), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	var dec, _ = NewDecoder(c)
	err = DecodeStream(ctx, dec, bytes.NewReader(make([]byte, 1000)), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamReadError(t *testing.T) {
	var c = testConfig()
	var enc, _ = NewEncoder(c)
	var err = EncodeStream(context.Background(), enc, iotest.ErrReader(assert.AnError), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

package packetutils

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherMetrics(t *testing.T, board *StatusBoard) map[string][]*dto.Metric {
	t.Helper()
	var registry = prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewStatusCollector(board)))

	var families, err = registry.Gather()
	require.NoError(t, err)

	var byName = map[string][]*dto.Metric{}
	for _, mf := range families {
		byName[mf.GetName()] = mf.GetMetric()
	}
	return byName
}

func TestStatusCollectorEmpty(t *testing.T) {
	assert.Empty(t, gatherMetrics(t, &StatusBoard{}))
}

func TestStatusCollectorDecoder(t *testing.T) {
	var c = testConfig()
	var data = chunks(c, 4)
	var stream = encodeAll(t, c, data)
	stream = dropFrame(stream, c.FrameLen(), 6)

	var dec, _ = NewDecoder(c)
	decodeAll(t, dec, stream, 100)

	var board = &StatusBoard{}
	board.SetDecoder(dec.Status())

	var metrics = gatherMetrics(t, board)
	assert.Len(t, metrics["packet_rx_frames_total"], 5)
	assert.InDelta(t, 1, metrics["packet_rx_recovered_slots_total"][0].GetCounter().GetValue(), 0)
	assert.InDelta(t, 40, metrics["packet_rx_bytes_total"][0].GetCounter().GetValue(), 0)
	assert.InDelta(t, float64(DECODER_FINISHED), metrics["packet_rx_state"][0].GetGauge().GetValue(), 0)
	assert.NotContains(t, metrics, "packet_tx_bytes_total")

	for _, m := range metrics["packet_rx_frames_total"] {
		if m.GetLabel()[0].GetValue() == "DATA" {
			assert.InDelta(t, 3, m.GetCounter().GetValue(), 0)
		}
	}
}

func TestStatusCollectorEncoder(t *testing.T) {
	var board = &StatusBoard{}
	board.SetEncoder(EncoderStatus{State: ENCODER_DATA, Training: 400, Start: 50, Data: 7, Parity: 1, End: 0, Groups: 1, BytesIn: 70})

	var collector = NewStatusCollector(board)
	// 5 frame types, groups, bytes, state.
	assert.Equal(t, 8, testutil.CollectAndCount(collector))
	assert.Equal(t, 5, testutil.CollectAndCount(collector, "packet_tx_frames_total"))

	var s, ok = board.Encoder()
	assert.True(t, ok)
	assert.Equal(t, 70, s.BytesIn)

	var _, rxOK = board.Decoder()
	assert.False(t, rxOK)
}

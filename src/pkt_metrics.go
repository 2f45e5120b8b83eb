package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Publish encoder and decoder counters for Prometheus.
 *
 * Description:	The codec runs on one goroutine and the HTTP server on
 *		others.  The host copies a status snapshot to the board
 *		after each Work call; scrapes read the latest copy.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusBoard holds the latest status of each side that is running.
type StatusBoard struct {
	mu sync.RWMutex
	rx *DecoderStatus
	tx *EncoderStatus
}

func (b *StatusBoard) SetDecoder(s DecoderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rx = &s
}

func (b *StatusBoard) SetEncoder(s EncoderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tx = &s
}

func (b *StatusBoard) Decoder() (DecoderStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.rx == nil {
		return DecoderStatus{}, false //nolint:exhaustruct
	}
	return *b.rx, true
}

func (b *StatusBoard) Encoder() (EncoderStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.tx == nil {
		return EncoderStatus{}, false //nolint:exhaustruct
	}
	return *b.tx, true
}

// StatusCollector is a prometheus.Collector reading from a StatusBoard.
type StatusCollector struct {
	board *StatusBoard

	rxFrames    *prometheus.Desc
	rxCRCFail   *prometheus.Desc
	rxRecovered *prometheus.Desc
	rxLost      *prometheus.Desc
	rxIgnored   *prometheus.Desc
	rxBytes     *prometheus.Desc
	rxState     *prometheus.Desc

	txFrames *prometheus.Desc
	txGroups *prometheus.Desc
	txBytes  *prometheus.Desc
	txState  *prometheus.Desc
}

func NewStatusCollector(board *StatusBoard) *StatusCollector {
	return &StatusCollector{
		board: board,

		rxFrames: prometheus.NewDesc("packet_rx_frames_total",
			"Frames received with good CRC, by type", []string{"type"}, nil),
		rxCRCFail: prometheus.NewDesc("packet_rx_crc_fail_total",
			"Sync word found but CRC did not match", nil, nil),
		rxRecovered: prometheus.NewDesc("packet_rx_recovered_slots_total",
			"Data slots rebuilt from parity", nil, nil),
		rxLost: prometheus.NewDesc("packet_rx_lost_slots_total",
			"Data slots that could not be rebuilt", nil, nil),
		rxIgnored: prometheus.NewDesc("packet_rx_ignored_frames_total",
			"Good frames that were not usable", nil, nil),
		rxBytes: prometheus.NewDesc("packet_rx_bytes_total",
			"Recovered bytes delivered", nil, nil),
		rxState: prometheus.NewDesc("packet_rx_state",
			"Decoder state: 0 training, 1 receiving, 2 finished", nil, nil),

		txFrames: prometheus.NewDesc("packet_tx_frames_total",
			"Frames sent, by type", []string{"type"}, nil),
		txGroups: prometheus.NewDesc("packet_tx_groups_total",
			"Erasure groups closed with a parity frame", nil, nil),
		txBytes: prometheus.NewDesc("packet_tx_bytes_total",
			"Payload bytes taken from the source", nil, nil),
		txState: prometheus.NewDesc("packet_tx_state",
			"Encoder state: 0 training, 1 start, 2 data, 3 end, 4 finished", nil, nil),
	}
}

func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.rxFrames, c.rxCRCFail, c.rxRecovered, c.rxLost, c.rxIgnored, c.rxBytes, c.rxState,
		c.txFrames, c.txGroups, c.txBytes, c.txState,
	} {
		ch <- d
	}
}

func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	var counter = func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	if s, ok := c.board.Decoder(); ok {
		counter(c.rxFrames, s.Training, FRAME_TRAINING.String())
		counter(c.rxFrames, s.Start, FRAME_START.String())
		counter(c.rxFrames, s.Data, FRAME_DATA.String())
		counter(c.rxFrames, s.Parity, FRAME_PARITY.String())
		counter(c.rxFrames, s.End, FRAME_END.String())
		counter(c.rxCRCFail, s.CRCFail)
		counter(c.rxRecovered, s.Recovered)
		counter(c.rxLost, s.LostSlots)
		counter(c.rxIgnored, s.Ignored)
		counter(c.rxBytes, s.BytesOut)
		ch <- prometheus.MustNewConstMetric(c.rxState, prometheus.GaugeValue, float64(s.State))
	}

	if s, ok := c.board.Encoder(); ok {
		counter(c.txFrames, s.Training, FRAME_TRAINING.String())
		counter(c.txFrames, s.Start, FRAME_START.String())
		counter(c.txFrames, s.Data, FRAME_DATA.String())
		counter(c.txFrames, s.Parity, FRAME_PARITY.String())
		counter(c.txFrames, s.End, FRAME_END.String())
		counter(c.txGroups, s.Groups)
		counter(c.txBytes, s.BytesIn)
		ch <- prometheus.MustNewConstMetric(c.txState, prometheus.GaugeValue, float64(s.State))
	}
}

// ServeMetrics registers a collector for board and serves /metrics on addr
// until the listener fails.  Run it in its own goroutine.
func ServeMetrics(addr string, board *StatusBoard) error {
	var registry = prometheus.NewRegistry()
	registry.MustRegister(NewStatusCollector(board))

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})) //nolint:exhaustruct

	component_logger("metrics").Info("Serving metrics", "addr", addr)
	var err = http.ListenAndServe(addr, mux) //nolint:gosec
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

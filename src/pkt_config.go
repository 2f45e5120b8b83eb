package packetutils

/*------------------------------------------------------------------
 *
 * Purpose:	Codec configuration.
 *
 * Description:	Defaults match the reference sizing: 10 byte payload,
 *		16 byte 0xAA preamble, sync word 0xDEADBEEF, one pad
 *		byte, which gives a 48 byte frame.
 *
 *		A YAML file can override any field, e.g.
 *
 *			payload_len: 10
 *			sync_word: 0xDEADBEEF
 *			group_size: 4
 *			sync_tolerance: 2
 *			training_count: 400
 *			sentinel: "deadbeefcafebabef00d"
 *
 *		Both ends must agree on everything except the repeat
 *		counts, tolerance and fill_gaps.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_PAYLOAD_LEN    = 10
	DEFAULT_PREAMBLE_LEN   = 16
	DEFAULT_PREAMBLE_BYTE  = 0xaa
	DEFAULT_SYNC_WORD      = 0xdeadbeef
	DEFAULT_PAD_LEN        = 1
	DEFAULT_TRAINING_COUNT = 400
	DEFAULT_START_COUNT    = 50
	DEFAULT_END_COUNT      = 50
	DEFAULT_GROUP_SIZE     = 4
	DEFAULT_SYNC_TOLERANCE = 2

	PKT_SYNC_SIZE   = 4
	PKT_HEADER_SIZE = 3 // type, group, slot

	// Group and slot ids are single bytes and the parity slot sits after the data slots.
	PKT_MAX_GROUP_SIZE = 254
)

// The source appends this after the data.  The encoder watches for it to trigger END frames.
var pkt_eof_sentinel = []byte{0xde, 0xad, 0xbe, 0xef, 0xca, 0xfe, 0xba, 0xbe, 0xf0, 0x0d}

var ErrInvalidConfig = errors.New("invalid configuration")

// HexBytes reads a hex string from YAML, e.g. "deadbeef".
type HexBytes []byte

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	var b, err = hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("hex value %q: %w", s, err)
	}
	*h = b
	return nil
}

func (h HexBytes) MarshalYAML() (any, error) {
	return hex.EncodeToString(h), nil
}

type Config struct {
	PayloadLen    int      `yaml:"payload_len"`
	PreambleLen   int      `yaml:"preamble_len"`
	PreambleByte  uint8    `yaml:"preamble_byte"`
	SyncWord      uint32   `yaml:"sync_word"`
	PadLen        int      `yaml:"pad_len"`
	TrainingCount int      `yaml:"training_count"`
	StartCount    int      `yaml:"start_count"`
	EndCount      int      `yaml:"end_count"`
	GroupSize     int      `yaml:"group_size"`
	SyncTolerance int      `yaml:"sync_tolerance"`
	FillGaps      bool     `yaml:"fill_gaps"`
	Sentinel      HexBytes `yaml:"sentinel,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		PayloadLen:    DEFAULT_PAYLOAD_LEN,
		PreambleLen:   DEFAULT_PREAMBLE_LEN,
		PreambleByte:  DEFAULT_PREAMBLE_BYTE,
		SyncWord:      DEFAULT_SYNC_WORD,
		PadLen:        DEFAULT_PAD_LEN,
		TrainingCount: DEFAULT_TRAINING_COUNT,
		StartCount:    DEFAULT_START_COUNT,
		EndCount:      DEFAULT_END_COUNT,
		GroupSize:     DEFAULT_GROUP_SIZE,
		SyncTolerance: DEFAULT_SYNC_TOLERANCE,
		FillGaps:      false,
		Sentinel:      nil,
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(filename string) (*Config, error) {
	var data, err = os.ReadFile(filename) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config = DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.PayloadLen < 1 {
		return fmt.Errorf("%w: payload_len %d must be at least 1", ErrInvalidConfig, c.PayloadLen)
	}
	if c.PreambleLen < 0 || c.PadLen < 0 {
		return fmt.Errorf("%w: preamble_len and pad_len can't be negative", ErrInvalidConfig)
	}
	if c.TrainingCount < 0 || c.StartCount < 0 || c.EndCount < 0 {
		return fmt.Errorf("%w: frame repeat counts can't be negative", ErrInvalidConfig)
	}
	if c.GroupSize < 1 || c.GroupSize > PKT_MAX_GROUP_SIZE {
		return fmt.Errorf("%w: group_size %d not in range 1 - %d", ErrInvalidConfig, c.GroupSize, PKT_MAX_GROUP_SIZE)
	}
	if c.SyncTolerance < 0 || c.SyncTolerance >= PKT_SYNC_SIZE*8/2 {
		return fmt.Errorf("%w: sync_tolerance %d not in range 0 - %d", ErrInvalidConfig, c.SyncTolerance, PKT_SYNC_SIZE*8/2-1)
	}
	if len(c.Sentinel) != 0 && len(c.Sentinel) != c.PayloadLen {
		return fmt.Errorf("%w: sentinel is %d bytes, payload_len is %d", ErrInvalidConfig, len(c.Sentinel), c.PayloadLen)
	}
	return nil
}

// RegionLen is the scrambled part: header, FEC payload and CRC.
func (c *Config) RegionLen() int {
	return PKT_HEADER_SIZE + 2*c.PayloadLen + PKT_CRC_SIZE
}

// FrameLen is the fixed size of every frame on the wire.
func (c *Config) FrameLen() int {
	return c.PreambleLen + PKT_SYNC_SIZE + c.RegionLen() + c.PadLen
}

// EndSentinel is the reserved chunk that means "no more data".
// The default pattern is repeated or truncated to the payload length.
func (c *Config) EndSentinel() []byte {
	if len(c.Sentinel) == c.PayloadLen {
		return append([]byte(nil), c.Sentinel...)
	}
	var s = make([]byte, c.PayloadLen)
	for i := range s {
		s[i] = pkt_eof_sentinel[i%len(pkt_eof_sentinel)]
	}
	return s
}

// load_tool_config is LoadConfig, or the defaults when no file is named.
func load_tool_config(filename string) (*Config, error) {
	if filename == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(filename)
}

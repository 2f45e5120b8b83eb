package packetutils

/*------------------------------------------------------------------
 *
 * Name:	pkt-tx
 *
 * Purpose:	Turn a file into a stream of frames for the modulator.
 *
 * Examples:	To a file, for later playback:
 *
 *			pkt-tx -o frames.bin picture.jpg
 *
 *		Straight to a serial modem, keying the radio with RTS on
 *		the same port:
 *
 *			pkt-tx -S /dev/ttyUSB0 -b 115200 -P /dev/ttyUSB0 picture.jpg
 *
 *		From a pipe, with short training for a wired test:
 *
 *			cat data | pkt-tx --training 10 --start 5 --end 5 - > frames.bin
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func PktTxMain() {
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.  Defaults are used if not given.")
	var outputFile = pflag.StringP("output", "o", "", "Write frames to this file.  Default is stdout.")
	var serialDevice = pflag.StringP("serial", "S", "", "Write frames to this serial port instead.")
	var baud = pflag.IntP("baud", "b", 0, "Serial port speed.  0 leaves it alone.")
	var pttDevice = pflag.StringP("ptt-device", "P", "", "Key the transmitter with a control line on this serial device.")
	var pttLine = pflag.StringP("ptt-line", "L", "RTS", "RTS or DTR.  Prefix with - to invert.")
	var media = pflag.BoolP("media", "m", false, "Add a media header so the receiver can save the file by type.")
	var training = pflag.Int("training", DEFAULT_TRAINING_COUNT, "Number of TRAINING frames.")
	var start = pflag.Int("start", DEFAULT_START_COUNT, "Number of START frames.")
	var end = pflag.Int("end", DEFAULT_END_COUNT, "Number of END frames.")
	var groupSize = pflag.IntP("group-size", "g", DEFAULT_GROUP_SIZE, "Data frames per parity frame.")
	var logLevel = pflag.StringP("log-level", "l", "info", "debug, info, warn or error.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Encode a file as packet frames.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Use - for file to read stdin.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help || len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	if err := SetLogLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %s\n", *logLevel, err)
		os.Exit(1)
	}

	var logger = component_logger("pkt-tx")

	var config, configErr = load_tool_config(*configFile)
	if configErr != nil {
		logger.Error("Configuration", "err", configErr)
		os.Exit(1)
	}
	if pflag.CommandLine.Changed("training") {
		config.TrainingCount = *training
	}
	if pflag.CommandLine.Changed("start") {
		config.StartCount = *start
	}
	if pflag.CommandLine.Changed("end") {
		config.EndCount = *end
	}
	if pflag.CommandLine.Changed("group-size") {
		config.GroupSize = *groupSize
	}

	var enc, encErr = NewEncoder(config)
	if encErr != nil {
		logger.Error("Configuration", "err", encErr)
		os.Exit(1)
	}

	/*
	 * Input.
	 */
	var input io.Reader
	var inputName = pflag.Args()[0]

	switch {
	case *media:
		if inputName == "-" {
			logger.Error("Media header needs a file name to choose the type.")
			os.Exit(1)
		}
		var wrapped, kind, err = ReadMediaFile(inputName)
		if err != nil {
			logger.Error("Can't read input", "file", inputName, "err", err)
			os.Exit(1)
		}
		logger.Info("Sending media", "file", inputName, "kind", kind, "bytes", len(wrapped))
		input = bytes.NewReader(wrapped)
	case inputName == "-":
		input = os.Stdin
	default:
		var fp, err = os.Open(inputName) //nolint:gosec
		if err != nil {
			logger.Error("Can't open input", "file", inputName, "err", err)
			os.Exit(1)
		}
		defer fp.Close()
		input = fp
	}

	/*
	 * Output.
	 */
	var output io.Writer = os.Stdout

	if *serialDevice != "" {
		var port, err = serial_port_open(*serialDevice, *baud)
		if err != nil {
			logger.Error("Serial port", "err", err)
			os.Exit(1)
		}
		defer port.Close()
		output = port
	} else if *outputFile != "" {
		var fp, err = os.Create(*outputFile)
		if err != nil {
			logger.Error("Can't create output", "file", *outputFile, "err", err)
			os.Exit(1)
		}
		defer fp.Close()
		output = fp
	}

	var ptt *PTT
	if *pttDevice != "" {
		var err error
		ptt, err = OpenPTT(*pttDevice, *pttLine)
		if err != nil {
			logger.Error("PTT", "err", err)
			os.Exit(1)
		}
		if err := ptt.Set(true); err != nil {
			ptt.Close()
			logger.Error("PTT", "err", err)
			os.Exit(1)
		}
	}

	var err = EncodeStream(context.Background(), enc, input, output, nil)

	// Unkey before anything else, even on failure.
	if ptt != nil {
		ptt.Close()
	}

	if err != nil {
		logger.Error("Encoding failed", "err", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, enc.Status().String())
}

package packetutils

/*------------------------------------------------------------------
 *
 * Name:	pkt-rx
 *
 * Purpose:	Recover the original file from raw demodulated bytes.
 *
 * Examples:	From a capture file:
 *
 *			pkt-rx -o received.bin frames.bin
 *
 *		From a serial modem, saving by media type and logging
 *		every frame to a daily CSV file:
 *
 *			pkt-rx -S /dev/ttyUSB0 -b 115200 -M picture -F 'rx-%Y-%m-%d.csv'
 *
 *		Publishing the stream on a pseudo terminal with metrics
 *		for Prometheus:
 *
 *			pkt-rx -p /tmp/pktrx -x :9110 -
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func PktRxMain() {
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.  Defaults are used if not given.")
	var outputFile = pflag.StringP("output", "o", "", "Write recovered bytes to this file.  Default is stdout.")
	var mediaSink = pflag.StringP("media-sink", "M", "", "Expect a media header.  Save to this name, adding an extension by type.")
	var serialDevice = pflag.StringP("serial", "S", "", "Read raw bytes from this serial port instead of a file.")
	var baud = pflag.IntP("baud", "b", 0, "Serial port speed.  0 leaves it alone.")
	var ptyLink = pflag.StringP("pty", "p", "", "Also write recovered bytes to a pseudo terminal, with this symlink to it.")
	var frameLog = pflag.StringP("frame-log", "F", "", "CSV log of every frame.  strftime conversions allowed in the name.")
	var metricsAddr = pflag.StringP("metrics-addr", "x", "", "Serve Prometheus metrics on this address, e.g. :9110")
	var fillGaps = pflag.BoolP("fill-gaps", "f", false, "Write zeros for data that could not be recovered.")
	var tolerance = pflag.IntP("tolerance", "t", DEFAULT_SYNC_TOLERANCE, "Sync word bit errors accepted.")
	var quiet = pflag.BoolP("quiet", "q", false, "No status line.")
	var logLevel = pflag.StringP("log-level", "l", "info", "debug, info, warn or error.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Decode packet frames back to a file.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [file]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Give a file, - for stdin, or -S for a serial port.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help || len(pflag.Args()) > 1 || (len(pflag.Args()) == 0 && *serialDevice == "") {
		pflag.Usage()
		os.Exit(1)
	}

	if err := SetLogLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %s\n", *logLevel, err)
		os.Exit(1)
	}

	var logger = component_logger("pkt-rx")

	var config, configErr = load_tool_config(*configFile)
	if configErr != nil {
		logger.Error("Configuration", "err", configErr)
		os.Exit(1)
	}
	if pflag.CommandLine.Changed("fill-gaps") {
		config.FillGaps = *fillGaps
	}
	if pflag.CommandLine.Changed("tolerance") {
		config.SyncTolerance = *tolerance
	}

	var dec, decErr = NewDecoder(config)
	if decErr != nil {
		logger.Error("Configuration", "err", decErr)
		os.Exit(1)
	}

	/*
	 * Input.
	 */
	var input io.Reader

	switch {
	case *serialDevice != "":
		var port, err = serial_port_open(*serialDevice, *baud)
		if err != nil {
			logger.Error("Serial port", "err", err)
			os.Exit(1)
		}
		defer port.Close()
		input = port
	case pflag.Args()[0] == "-":
		input = os.Stdin
	default:
		var fp, err = os.Open(pflag.Args()[0]) //nolint:gosec
		if err != nil {
			logger.Error("Can't open input", "file", pflag.Args()[0], "err", err)
			os.Exit(1)
		}
		defer fp.Close()
		input = fp
	}

	/*
	 * Outputs.  Any combination.
	 */
	var outputs []io.Writer
	var sink *MediaSink

	if *mediaSink != "" {
		sink = NewMediaSink(*mediaSink)
		outputs = append(outputs, sink)
	}

	if *outputFile != "" {
		var fp, err = os.Create(*outputFile)
		if err != nil {
			logger.Error("Can't create output", "file", *outputFile, "err", err)
			os.Exit(1)
		}
		defer fp.Close()
		outputs = append(outputs, fp)
	}

	if *ptyLink != "" {
		var pt, err = OpenPtyPort(*ptyLink)
		if err != nil {
			logger.Error("Pseudo terminal", "err", err)
			os.Exit(1)
		}
		defer pt.Close()
		outputs = append(outputs, pt)
	}

	if len(outputs) == 0 {
		outputs = append(outputs, os.Stdout)
	}

	if *frameLog != "" {
		var fl, err = NewFrameLog(*frameLog)
		if err != nil {
			logger.Error("Frame log", "err", err)
			os.Exit(1)
		}
		defer fl.Close()
		dec.OnFrame = fl.Write
	}

	/*
	 * Status goes to the metrics board and, on a terminal, a status
	 * line redrawn in place a few times a second.
	 */
	var board = &StatusBoard{} //nolint:exhaustruct
	if *metricsAddr != "" {
		go func() {
			if err := ServeMetrics(*metricsAddr, board); err != nil {
				logger.Error("Metrics server", "err", err)
			}
		}()
	}

	var status_line = !*quiet && is_terminal(os.Stderr.Fd())
	var last_draw time.Time

	var progress = func() {
		var s = dec.Status()
		board.SetDecoder(s)
		if status_line && time.Since(last_draw) > 200*time.Millisecond {
			fmt.Fprintf(os.Stderr, "\r%s", s)
			last_draw = time.Now()
		}
	}

	var err = DecodeStream(context.Background(), dec, input, io.MultiWriter(outputs...), progress)

	if status_line {
		fmt.Fprintf(os.Stderr, "\n")
	}

	if sink != nil {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		logger.Error("Decoding failed", "err", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, dec.Status().String())
}

package packetutils

/*------------------------------------------------------------------
 *
 * Name:	pkt-loopback
 *
 * Purpose:	Encode, damage, decode and compare.  No radio needed.
 *
 * Description:	Test data is either a file or pseudo random bytes.
 *		The frames go through the channel simulator, then the
 *		decoder, and the result must match the original apart
 *		from the zero padding at the end of the last chunk.
 *
 * Examples:	Clean channel:
 *
 *			pkt-loopback -n 5000
 *
 *		Everything 3 bits out of byte alignment and a few frames
 *		dropped, each from a different group:
 *
 *			pkt-loopback -n 5000 -s 3 -D 460,465,470
 *
 *		Random bit errors (-e) land in the header or CRC now and
 *		then, which loses the frame, so expect some FAILs.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func PktLoopbackMain() {
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.  Defaults are used if not given.")
	var byteCount = pflag.IntP("bytes", "n", 1000, "Amount of random test data, if no file given.")
	var bitErrors = pflag.IntP("bit-errors", "e", 0, "Random bit errors per frame.")
	var slip = pflag.IntP("slip", "s", 0, "Bits (0-7) of garbage at the start, so nothing is byte aligned.")
	var dropPercent = pflag.IntP("drop-percent", "d", 0, "Drop this percentage of frames at random.")
	var dropFrames = pflag.IntSliceP("drop", "D", nil, "Drop these frames, counting from 0.")
	var seed = pflag.Int32P("seed", "r", 1, "Random number seed.")
	var training = pflag.Int("training", 20, "Number of TRAINING frames.")
	var start = pflag.Int("start", 5, "Number of START frames.")
	var end = pflag.Int("end", 5, "Number of END frames.")
	var groupSize = pflag.IntP("group-size", "g", DEFAULT_GROUP_SIZE, "Data frames per parity frame.")
	var fillGaps = pflag.BoolP("fill-gaps", "f", false, "Write zeros for data that could not be recovered.")
	var logLevel = pflag.StringP("log-level", "l", "warn", "debug, info, warn or error.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Check the codec end to end over a simulated channel.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [file]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help || len(pflag.Args()) > 1 {
		pflag.Usage()
		os.Exit(1)
	}

	if err := SetLogLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %s\n", *logLevel, err)
		os.Exit(1)
	}

	var logger = component_logger("pkt-loopback")

	var config, configErr = load_tool_config(*configFile)
	if configErr != nil {
		logger.Error("Configuration", "err", configErr)
		os.Exit(1)
	}
	// The loopback defaults are short, so these always apply.
	config.TrainingCount = *training
	config.StartCount = *start
	config.EndCount = *end
	if pflag.CommandLine.Changed("group-size") {
		config.GroupSize = *groupSize
	}
	if pflag.CommandLine.Changed("fill-gaps") {
		config.FillGaps = *fillGaps
	}

	var enc, encErr = NewEncoder(config)
	if encErr != nil {
		logger.Error("Configuration", "err", encErr)
		os.Exit(1)
	}
	var dec, _ = NewDecoder(config)

	var sim = NewChannelSim(enc.FrameLen(), *seed)
	sim.BitErrors = *bitErrors
	sim.BitSlip = *slip
	sim.DropPercent = *dropPercent
	sim.DropFrames = *dropFrames

	var data []byte
	if len(pflag.Args()) == 1 {
		var err error
		data, err = os.ReadFile(pflag.Args()[0]) //nolint:gosec
		if err != nil {
			logger.Error("Can't read input", "file", pflag.Args()[0], "err", err)
			os.Exit(1)
		}
	} else {
		data = sim.RandomBytes(*byteCount)
	}

	var ctx = context.Background()

	var frames bytes.Buffer
	if err := EncodeStream(ctx, enc, bytes.NewReader(data), &frames, nil); err != nil {
		logger.Error("Encoding failed", "err", err)
		os.Exit(1)
	}

	var received = sim.Apply(frames.Bytes())

	var recovered bytes.Buffer
	if err := DecodeStream(ctx, dec, bytes.NewReader(received), &recovered, nil); err != nil {
		logger.Error("Decoding failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", enc.Status())
	fmt.Printf("%s\n", dec.Status())
	fmt.Printf("%d bytes in, %d frames, %d bytes on the channel, %d bytes out\n",
		len(data), frames.Len()/enc.FrameLen(), len(received), recovered.Len())

	if !loopback_match(data, recovered.Bytes(), config.PayloadLen) {
		fmt.Printf("FAIL: recovered data does not match\n")
		os.Exit(1)
	}

	fmt.Printf("PASS\n")
}

// loopback_match allows for the zero fill at the end of the last chunk.
func loopback_match(sent []byte, got []byte, payload_len int) bool {
	if len(got) < len(sent) || len(got)-len(sent) >= payload_len {
		return false
	}
	if !bytes.Equal(got[:len(sent)], sent) {
		return false
	}
	for _, b := range got[len(sent):] {
		if b != 0 {
			return false
		}
	}
	return true
}

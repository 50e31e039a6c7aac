// Command microshrink compresses and decompresses files using the LZSS-family
// streaming codec implemented in github.com/quietcore/microshrink/microshrink.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quietcore/microshrink/microshrink"
)

const bufferSize = 1024

var (
	windowBits    uint8
	lookaheadBits uint8
	inputBufSize  uint16
	verbose       bool

	log = logrus.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "microshrink",
		Short:         "Compress and decompress files with the microshrink streaming codec",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().Uint8VarP(&windowBits, "window", "w", 11, "window bits (4-15); window size is 2^w bytes")
	root.PersistentFlags().Uint8VarP(&lookaheadBits, "lookahead", "l", 4, "lookahead bits (3-w); max match length is 2^l bytes")
	root.PersistentFlags().Uint16Var(&inputBufSize, "ibs", bufferSize, "decoder input ring size in bytes")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging of encoder/decoder Sink calls (per-poll state tracing is trace-level and stays hidden)")

	root.AddCommand(newCompressCmd(), newDecompressCmd())
	return root
}

func newCompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compress <input> <output>",
		Short: "Compress a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(args[0], args[1])
		},
	}
}

func newDecompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompress <input> <output>",
		Short: "Decompress a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(args[0], args[1])
		},
	}
}

// runCompress drives the encoder with a fixed-block sink/poll/finish loop, reading
// and writing in bufferSize chunks instead of loading the whole file into memory.
func runCompress(inPath, outPath string) error {
	in, out, err := openPair(inPath, outPath)
	if err != nil {
		return err
	}
	defer in.Close()
	defer out.Close()

	enc := microshrink.NewEncoder(windowBits, lookaheadBits, microshrink.WithEncoderLogger(log))
	if enc == nil {
		return fmt.Errorf("invalid parameters: window=%d lookahead=%d", windowBits, lookaheadBits)
	}

	inBuf := make([]byte, bufferSize)
	outBuf := make([]byte, bufferSize)

	for {
		n, rerr := in.Read(inBuf)
		if n > 0 {
			if err := sinkAll(enc.Sink, enc.Poll, inBuf[:n], outBuf, out); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read input: %w", rerr)
		}
	}

	for enc.Finish() == microshrink.StatusMore {
		if err := drainPollToFile(enc.Poll, outBuf, out); err != nil {
			return err
		}
	}

	fmt.Printf("compress: %d bytes -> wrote output\n", mustSize(inPath))
	return nil
}

func runDecompress(inPath, outPath string) error {
	in, out, err := openPair(inPath, outPath)
	if err != nil {
		return err
	}
	defer in.Close()
	defer out.Close()

	dec := microshrink.NewDecoder(windowBits, lookaheadBits, inputBufSize, microshrink.WithDecoderLogger(log))
	if dec == nil {
		return fmt.Errorf("invalid parameters: window=%d lookahead=%d ibs=%d", windowBits, lookaheadBits, inputBufSize)
	}

	inBuf := make([]byte, bufferSize)
	outBuf := make([]byte, bufferSize)

	for {
		n, rerr := in.Read(inBuf)
		if n > 0 {
			if err := sinkAll(dec.Sink, dec.Poll, inBuf[:n], outBuf, out); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read input: %w", rerr)
		}
	}

	for dec.Finish() == microshrink.StatusMore {
		if err := drainPollToFile(dec.Poll, outBuf, out); err != nil {
			return err
		}
	}

	fmt.Println("decompress: done")
	return nil
}

// sinkAll feeds chunk to sink in a loop (a single Sink call may accept only part of
// it, per the protocol), draining poll after every accepted slice so the encoder or
// decoder's internal buffer never backs up.
func sinkAll(sink func([]byte) (int, microshrink.Status), poll func([]byte) (int, microshrink.Status), chunk []byte, outBuf []byte, out io.Writer) error {
	for len(chunk) > 0 {
		n, status := sink(chunk)
		if status.IsError() {
			return fmt.Errorf("sink: %w", status)
		}
		chunk = chunk[n:]
		if err := drainPollToFile(poll, outBuf, out); err != nil {
			return err
		}
	}
	return nil
}

func drainPollToFile(poll func([]byte) (int, microshrink.Status), outBuf []byte, out io.Writer) error {
	for {
		n, status := poll(outBuf)
		if n > 0 {
			if _, werr := out.Write(outBuf[:n]); werr != nil {
				return fmt.Errorf("write output: %w", werr)
			}
		}
		if status.IsError() {
			return fmt.Errorf("poll: %w", status)
		}
		if status != microshrink.StatusMore {
			return nil
		}
	}
}

func openPair(inPath, outPath string) (*os.File, *os.File, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		in.Close()
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return in, out, nil
}

func mustSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

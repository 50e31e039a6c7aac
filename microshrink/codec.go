package microshrink

import "fmt"

// DefaultInputBufferSize is the decoder input ring size used by the one-shot helpers
// below, and a reasonable default for callers who don't need to tune it themselves.
const DefaultInputBufferSize = 256

const defaultInputBufferSize = DefaultInputBufferSize

// Compress runs data through a fresh Encoder to completion and returns the packed
// bitstream. It is a convenience wrapper around Sink/Poll/Finish for callers who
// have the whole input in memory and don't need the streaming protocol themselves.
func Compress(windowBits, lookaheadBits uint8, data []byte, opts ...EncoderOption) ([]byte, error) {
	enc := NewEncoder(windowBits, lookaheadBits, opts...)
	if enc == nil {
		return nil, fmt.Errorf("microshrink: invalid parameters (window=%d, lookahead=%d)", windowBits, lookaheadBits)
	}

	out := make([]byte, 0, len(data)/2+64)
	chunk := make([]byte, 512)

	for len(data) > 0 {
		n, status := enc.Sink(data)
		if status.IsError() {
			return nil, fmt.Errorf("microshrink: sink: %w", status)
		}
		data = data[n:]
		if err := drainPoll(enc.Poll, chunk, &out); err != nil {
			return nil, err
		}
	}

	for enc.Finish() == StatusMore {
		if err := drainPoll(enc.Poll, chunk, &out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Decompress runs packed through a fresh Decoder, with an input ring of ibs bytes
// (use DefaultInputBufferSize if unsure), and returns the reconstructed plaintext.
func Decompress(windowBits, lookaheadBits uint8, ibs uint16, packed []byte, opts ...DecoderOption) ([]byte, error) {
	dec := NewDecoder(windowBits, lookaheadBits, ibs, opts...)
	if dec == nil {
		return nil, fmt.Errorf("microshrink: invalid parameters (window=%d, lookahead=%d, ibs=%d)", windowBits, lookaheadBits, ibs)
	}

	out := make([]byte, 0, len(packed)*2+64)
	chunk := make([]byte, 512)

	for len(packed) > 0 {
		n, status := dec.Sink(packed)
		if status.IsError() {
			return nil, fmt.Errorf("microshrink: sink: %w", status)
		}
		packed = packed[n:]
		if err := drainPoll(dec.Poll, chunk, &out); err != nil {
			return nil, err
		}
	}

	for dec.Finish() == StatusMore {
		if err := drainPoll(dec.Poll, chunk, &out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// drainPoll calls poll repeatedly into chunk, appending produced bytes to out, until
// poll stops reporting StatusMore (meaning it's caught up and is waiting on more
// input, or is done).
func drainPoll(poll func([]byte) (int, Status), chunk []byte, out *[]byte) error {
	for {
		n, status := poll(chunk)
		*out = append(*out, chunk[:n]...)
		if status.IsError() {
			return fmt.Errorf("microshrink: poll: %w", status)
		}
		if status != StatusMore {
			return nil
		}
	}
}

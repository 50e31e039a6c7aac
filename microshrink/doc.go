/*
Package microshrink implements a streaming, loss-less LZSS-style compressor and
decompressor tuned for memory-constrained environments: a single encoder or decoder
context needs only a few hundred bytes to a few kilobytes of RAM, allocates its
buffers once at construction, and needs no scratch buffers beyond the context itself.

# Bitstream

The wire format is a raw, unframed, MSB-first packed bit sequence. There is no magic
number, header, checksum, or length field — integrity and framing are the caller's
responsibility. Each token is either:

  - a literal: tag bit 1, then 8 bits of the byte, or
  - a backreference: tag bit 0, then W bits of (offset-1), then L bits of (length-1),

where W is the window bit-width and L is the lookahead bit-width the codec was
constructed with. The decoder must be configured with the same (W, L) the encoder used;
that pairing is out-of-band.

# Driving a codec

Both Encoder and Decoder expose the same three-operation protocol: Sink pushes input
bytes into the context, Poll pulls produced output into a caller-supplied buffer, and
Finish marks the input stream closed. All buffers are acquired at construction (New*)
and reused for the context's lifetime; Sink, Poll and Finish never grow or replace
them. Sink and Poll are not allocation-free, though: every call builds its debug-log
fields (a logrus.Fields map and Entry) on the heap, whether or not logging is
enabled. A context can be
driven with buffers as small as one byte at a time without changing the output.
*/
package microshrink

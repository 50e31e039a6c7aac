package microshrink

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
)

func roundTripInputSet() []struct {
	name string
	data []byte
} {
	return []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "single-byte", data: []byte{0x42}},
		{name: "short-text", data: []byte("the quick brown fox jumps over the lazy dog")},
		{name: "all-same-byte", data: bytes.Repeat([]byte{0xAA}, 5000)},
		{name: "repeated-pattern", data: bytes.Repeat([]byte("abcabcabc"), 3000)},
		{name: "byte-cycle", data: bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 2048)},
		{name: "pseudo-random", data: pseudoRandom(64 * 1024)},
		{name: "regression-size-337-seed-3", data: pseudoRandom(337)},
		{name: "regression-size-64ki", data: pseudoRandom(64 * 1024)},
	}
}

// pseudoRandom produces a deterministic byte slice; exact content doesn't matter, only
// that it's reproducible across runs and exercises long match-free stretches.
func pseudoRandom(n int) []byte {
	r := rand.New(rand.NewSource(3))
	b := make([]byte, n)
	r.Read(b)
	return b
}

var paramCases = []struct {
	windowBits, lookaheadBits uint8
}{
	{4, 3},
	{8, 4},
	{8, 8},  // lookaheadBits == windowBits must be legal
	{11, 4}, // common reference defaults (window 2048, max match 16)
	{15, 6}, // largest legal window, exercises the 16-bit counter overflow boundary
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	for _, in := range roundTripInputSet() {
		for _, p := range paramCases {
			name := fmt.Sprintf("%s/w%d-l%d", in.name, p.windowBits, p.lookaheadBits)
			t.Run(name, func(t *testing.T) {
				packed, err := Compress(p.windowBits, p.lookaheadBits, in.data)
				if err != nil {
					t.Fatalf("Compress: %v", err)
				}
				out, err := Decompress(p.windowBits, p.lookaheadBits, defaultInputBufferSize, packed)
				if err != nil {
					t.Fatalf("Decompress: %v", err)
				}
				if !bytes.Equal(out, in.data) {
					t.Fatalf("round-trip mismatch: got %d bytes, want %d bytes", len(out), len(in.data))
				}
			})
		}
	}
}

func TestCompressDecompress_HashChainMatchesLinear(t *testing.T) {
	for _, in := range roundTripInputSet() {
		for _, p := range paramCases {
			name := fmt.Sprintf("%s/w%d-l%d", in.name, p.windowBits, p.lookaheadBits)
			t.Run(name, func(t *testing.T) {
				linear, err := Compress(p.windowBits, p.lookaheadBits, in.data, WithSearchMode(SearchLinear))
				if err != nil {
					t.Fatalf("Compress (linear): %v", err)
				}
				indexed, err := Compress(p.windowBits, p.lookaheadBits, in.data, WithSearchMode(SearchHashChain))
				if err != nil {
					t.Fatalf("Compress (hash chain): %v", err)
				}
				if !bytes.Equal(linear, indexed) {
					t.Fatalf("search modes diverged: linear=%d bytes, hash-chain=%d bytes", len(linear), len(indexed))
				}

				out, err := Decompress(p.windowBits, p.lookaheadBits, defaultInputBufferSize, indexed)
				if err != nil {
					t.Fatalf("Decompress (hash chain output): %v", err)
				}
				if !bytes.Equal(out, in.data) {
					t.Fatalf("hash-chain round-trip mismatch: got %d bytes, want %d bytes", len(out), len(in.data))
				}
			})
		}
	}
}

func TestCompress_NeverEmitsLengthTwoBackref(t *testing.T) {
	// The search must turn down a candidate of exactly two bytes: in "abxaby" the
	// needle "aby" at input position 3 shares only "ab" with the earlier "abx".
	for _, mode := range []SearchMode{SearchLinear, SearchHashChain} {
		e := NewEncoder(8, 4, WithSearchMode(mode))
		if _, status := e.Sink([]byte("abxaby")); status != StatusOK {
			t.Fatalf("Sink: %v", status)
		}
		if mode == SearchHashChain {
			e.buildSearchIndex()
		}
		start := e.inputOffset()
		if pos, length := e.findLongestMatch(start, start+3, 3); pos != matchNotFound {
			t.Errorf("search mode %d: findLongestMatch = (%d, %d), want no match for a 2-byte candidate", mode, pos, length)
		}
	}

	// A long run of "aa" pairs must still round-trip.
	data := bytes.Repeat([]byte("aa"), 4096)
	packed, err := Compress(8, 4, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(8, 4, defaultInputBufferSize, packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCompress_InvalidParams(t *testing.T) {
	cases := []struct{ windowBits, lookaheadBits uint8 }{
		{3, 3},  // windowBits too small
		{16, 4}, // windowBits too large
		{8, 2},  // lookaheadBits too small
		{8, 9},  // lookaheadBits > windowBits
	}
	for _, c := range cases {
		if _, err := Compress(c.windowBits, c.lookaheadBits, []byte("x")); err == nil {
			t.Errorf("Compress(%d, %d) = nil error, want error", c.windowBits, c.lookaheadBits)
		}
	}
}

func TestDecompress_InvalidParams(t *testing.T) {
	if _, err := Decompress(8, 4, 0, []byte{0x00}); err == nil {
		t.Errorf("Decompress with ibs=0 = nil error, want error")
	}
	if _, err := Decompress(8, 9, defaultInputBufferSize, []byte{0x00}); err == nil {
		t.Errorf("Decompress with lookaheadBits > windowBits = nil error, want error")
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(uint8(8), uint8(4), pseudoRandom(337))
	f.Add(uint8(8), uint8(4), pseudoRandom(64*1024))
	f.Add(uint8(4), uint8(3), []byte{})
	f.Add(uint8(15), uint8(6), []byte{0x00})

	f.Fuzz(func(t *testing.T, windowBits, lookaheadBits uint8, data []byte) {
		packed, err := Compress(windowBits, lookaheadBits, data)
		if err != nil {
			t.Skip()
		}
		out, err := Decompress(windowBits, lookaheadBits, defaultInputBufferSize, packed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round-trip mismatch for window=%d lookahead=%d len=%d", windowBits, lookaheadBits, len(data))
		}
	})
}

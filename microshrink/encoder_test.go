package microshrink

import (
	"bytes"
	"testing"
)

func TestNewEncoder_RejectsInvalidParams(t *testing.T) {
	if e := NewEncoder(3, 3); e != nil {
		t.Errorf("NewEncoder(3, 3) = %v, want nil", e)
	}
	if e := NewEncoder(8, 9); e != nil {
		t.Errorf("NewEncoder(8, 9) = %v, want nil", e)
	}
	if e := NewEncoder(8, 8); e == nil {
		t.Errorf("NewEncoder(8, 8) = nil, want non-nil (lookaheadBits == windowBits is legal)")
	}
}

func TestEncoder_SinkRejectsNilAndAfterFinish(t *testing.T) {
	e := NewEncoder(8, 4)
	if _, status := e.Sink(nil); status != StatusNull {
		t.Errorf("Sink(nil) status = %v, want StatusNull", status)
	}
	if status := e.Finish(); status == StatusDone {
		t.Fatalf("Finish on empty encoder returned Done immediately; test assumption broken")
	}
	if _, status := e.Sink([]byte("x")); status != StatusMisuse {
		t.Errorf("Sink after Finish status = %v, want StatusMisuse", status)
	}
}

func TestEncoder_PollRejectsNilAndZeroLength(t *testing.T) {
	e := NewEncoder(8, 4)
	if _, status := e.Poll(nil); status != StatusNull {
		t.Errorf("Poll(nil) status = %v, want StatusNull", status)
	}
	if _, status := e.Poll([]byte{}); status != StatusMisuse {
		t.Errorf("Poll(empty, non-nil) status = %v, want StatusMisuse", status)
	}
}

// TestEncoder_TinyOutputBuffer drives Sink/Poll/Finish one byte of output at a time,
// the way a caller with a tiny fixed buffer would.
func TestEncoder_TinyOutputBuffer(t *testing.T) {
	data := bytes.Repeat([]byte("hello world"), 50)
	e := NewEncoder(8, 4)

	var packed []byte
	chunk := make([]byte, 1)
	remaining := data

	for len(remaining) > 0 {
		n, status := e.Sink(remaining)
		if status.IsError() {
			t.Fatalf("Sink: %v", status)
		}
		remaining = remaining[n:]
		for {
			pn, pstatus := e.Poll(chunk)
			packed = append(packed, chunk[:pn]...)
			if pstatus.IsError() {
				t.Fatalf("Poll: %v", pstatus)
			}
			if pstatus != StatusMore {
				break
			}
		}
	}
	for e.Finish() == StatusMore {
		pn, pstatus := e.Poll(chunk)
		packed = append(packed, chunk[:pn]...)
		if pstatus.IsError() {
			t.Fatalf("Poll: %v", pstatus)
		}
	}

	out, err := Decompress(8, 4, defaultInputBufferSize, packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch via tiny buffers")
	}
}

func TestEncoder_Reset(t *testing.T) {
	e := NewEncoder(8, 4)
	packedBefore, err := compressWith(e, []byte("abcabcabcabc"))
	if err != nil {
		t.Fatalf("compressWith: %v", err)
	}

	e.Reset()
	packedAfter, err := compressWith(e, []byte("abcabcabcabc"))
	if err != nil {
		t.Fatalf("compressWith after Reset: %v", err)
	}

	if !bytes.Equal(packedBefore, packedAfter) {
		t.Fatalf("Reset did not return the encoder to a clean initial state")
	}
}

// compressWith drives an already-constructed encoder to completion, mirroring
// Compress but without allocating a fresh Encoder, for tests that need to reuse one.
func compressWith(e *Encoder, data []byte) ([]byte, error) {
	var out []byte
	chunk := make([]byte, 64)
	for len(data) > 0 {
		n, status := e.Sink(data)
		if status.IsError() {
			return nil, status
		}
		data = data[n:]
		for {
			pn, pstatus := e.Poll(chunk)
			out = append(out, chunk[:pn]...)
			if pstatus.IsError() {
				return nil, pstatus
			}
			if pstatus != StatusMore {
				break
			}
		}
	}
	for e.Finish() == StatusMore {
		pn, pstatus := e.Poll(chunk)
		out = append(out, chunk[:pn]...)
		if pstatus.IsError() {
			return nil, pstatus
		}
	}
	return out, nil
}

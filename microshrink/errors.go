package microshrink

import "fmt"

// Status is the small result code every Sink/Poll/Finish call returns alongside a byte
// count. It mirrors the int return codes of the original C API (HSER_*/HSDR_*) as a
// single enum shared by the encoder and the decoder, since only a handful of the values
// apply to any one call.
type Status int

const (
	// StatusOK reports that Sink accepted bytes.
	StatusOK Status = iota
	// StatusEmpty reports that Poll cannot make progress without more input (or is done).
	StatusEmpty
	// StatusMore reports that Poll's output buffer filled before the machine blocked, or
	// that Finish has not yet reached its terminal state.
	StatusMore
	// StatusDone reports that Finish has reached the terminal state with all pending
	// bits flushed.
	StatusDone
	// StatusFull reports that the decoder's input ring has no room; the caller must
	// drain with Poll and retry Sink.
	StatusFull
	// StatusMisuse reports an API call in the wrong state (Sink after Finish, Sink while
	// the input region is still being drained, Poll with a zero-length buffer, ...).
	StatusMisuse
	// StatusNull reports a required argument was missing (nil buffer, nil context).
	StatusNull
	// StatusUnknown reports an internal invariant violation. The context should be
	// discarded; this status is fatal, not a backpressure signal.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusMore:
		return "more"
	case StatusDone:
		return "done"
	case StatusFull:
		return "full"
	case StatusMisuse:
		return "misuse"
	case StatusNull:
		return "null"
	case StatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Error implements the error interface so a Status can be returned directly from
// helpers (Compress, Decompress) that want an idiomatic Go error rather than a bare
// code. StatusOK, StatusDone, StatusEmpty and StatusMore are not errors; calling Error
// on them is only meaningful via IsError guarding the call site.
func (s Status) Error() string {
	return "microshrink: " + s.String()
}

// IsError reports whether s represents a call that failed outright, as opposed to a
// normal suspension point (StatusEmpty, StatusMore) or a successful terminal state
// (StatusOK, StatusDone).
func (s Status) IsError() bool {
	switch s {
	case StatusFull, StatusMisuse, StatusNull, StatusUnknown:
		return true
	default:
		return false
	}
}

package microshrink

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Encoder turns a stream of plaintext bytes into a packed, unframed LZSS-style
// bitstream, via the Sink/Poll/Finish/Reset protocol. Its buffers are allocated once,
// at construction; Sink and Poll still allocate a little on every call for their
// debug-log fields.
type Encoder struct {
	windowBits    uint8
	lookaheadBits uint8
	searchMode    SearchMode

	// buffer is [backlog | input], each region inputBufferSize() bytes.
	buffer      []byte
	searchIndex []uint16 // only populated when searchMode == SearchHashChain

	inputSize uint16
	scanIndex uint16 // match_scan_index: cursor into the input region
	matchPos  uint16 // pending match's back-offset, valid while matchLen > 0
	matchLen  uint16 // pending match's length, or 0 for "no match"

	outgoingBits      uint16 // wide field (index or length) being drained to bw
	outgoingBitsCount uint8

	flags encoderFlags
	state encoderState

	bw bitWriter

	log *logrus.Entry
}

type encoderFlags uint8

const (
	flagFinishing encoderFlags = 1 << iota
	flagHasLiteral
	flagOnFinalLiteral
	flagBacklogPartial
	flagBacklogFilled
)

type encoderState uint8

const (
	stateNotFull encoderState = iota
	stateFilled
	stateSearch
	stateYieldTagBit
	stateYieldLiteral
	stateYieldBRIndex
	stateYieldBRLength
	stateSaveBacklog
	stateFlushBits
	stateDone
)

// EncoderOption configures optional, non-default Encoder behavior.
type EncoderOption func(*Encoder)

// WithSearchMode selects the longest-match search strategy (default SearchLinear).
func WithSearchMode(mode SearchMode) EncoderOption {
	return func(e *Encoder) { e.searchMode = mode }
}

// WithEncoderLogger attaches a logger for per-transition debug tracing. Without this
// option, the encoder logs nothing.
func WithEncoderLogger(logger *logrus.Logger) EncoderOption {
	return func(e *Encoder) { e.log = logger.WithField("component", "encoder") }
}

func disabledLogger(component string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("component", component)
}

// NewEncoder allocates an encoder for the given window and lookahead bit-widths. It
// returns nil if the parameters are out of range.
func NewEncoder(windowBits, lookaheadBits uint8, opts ...EncoderOption) *Encoder {
	if !validParams(windowBits, lookaheadBits) {
		return nil
	}
	e := &Encoder{
		windowBits:    windowBits,
		lookaheadBits: lookaheadBits,
		log:           disabledLogger("encoder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	// 2x the window: the input region plus a backlog of already-processed bytes
	// that remains a valid source of backreferences.
	e.buffer = make([]byte, 2*int(e.inputBufferSize()))
	if e.searchMode == SearchHashChain {
		e.searchIndex = make([]uint16, len(e.buffer))
	}
	e.Reset()
	return e
}

// Reset returns the encoder to its initial state, as if newly constructed. Buffers
// are zeroed and reused; Reset is idempotent and safe to call at any time.
func (e *Encoder) Reset() {
	for i := range e.buffer {
		e.buffer[i] = 0
	}
	e.inputSize = 0
	e.scanIndex = 0
	e.matchPos = 0
	e.matchLen = 0
	e.flags = 0
	e.state = stateNotFull
	e.outgoingBits = 0
	e.outgoingBitsCount = 0
	e.bw.reset()
}

func (e *Encoder) inputBufferSize() uint16 { return uint16(1) << e.windowBits }
func (e *Encoder) inputOffset() uint16     { return e.inputBufferSize() }
func (e *Encoder) lookaheadSize() uint16   { return uint16(1) << e.lookaheadBits }

// Sink copies as many bytes of in as fit in the free tail of the input region,
// reporting how many were accepted. It fails with StatusMisuse if called after
// Finish or while a previous fill is still being drained by Poll, and StatusNull if
// in is nil.
func (e *Encoder) Sink(in []byte) (int, Status) {
	if in == nil {
		return 0, StatusNull
	}
	if e.flags&flagFinishing != 0 {
		return 0, StatusMisuse
	}
	if e.state != stateNotFull {
		return 0, StatusMisuse
	}

	writeOffset := int(e.inputOffset()) + int(e.inputSize)
	rem := int(e.inputBufferSize()) - int(e.inputSize)
	cpSz := rem
	if len(in) < cpSz {
		cpSz = len(in)
	}

	copy(e.buffer[writeOffset:], in[:cpSz])
	e.inputSize += uint16(cpSz)

	e.log.WithFields(logrus.Fields{"accepted": cpSz, "offered": len(in), "input_size": e.inputSize}).Debug("sink")
	if cpSz == rem {
		e.state = stateFilled
	}
	return cpSz, StatusOK
}

// Poll advances the state machine, writing packed bits to out. It returns
// StatusEmpty when the machine cannot progress without more input (or has reached
// DONE), and StatusMore when out filled before the machine blocked.
func (e *Encoder) Poll(out []byte) (int, Status) {
	if out == nil {
		return 0, StatusNull
	}
	if len(out) == 0 {
		return 0, StatusMisuse
	}
	produced := 0
	for {
		e.log.WithFields(logrus.Fields{"state": e.state, "flags": e.flags}).Trace("poll")
		switch e.state {
		case stateNotFull:
			return produced, StatusEmpty
		case stateFilled:
			if e.searchMode == SearchHashChain {
				e.buildSearchIndex()
			}
			e.state = stateSearch
		case stateSearch:
			e.state = e.stepSearch()
		case stateYieldTagBit:
			if produced >= len(out) {
				return produced, StatusMore
			}
			e.state = e.yieldTagBit(out, &produced)
		case stateYieldLiteral:
			if produced >= len(out) {
				return produced, StatusMore
			}
			e.state = e.yieldLiteral(out, &produced)
		case stateYieldBRIndex:
			if produced >= len(out) {
				return produced, StatusMore
			}
			e.state = e.yieldBRIndex(out, &produced)
		case stateYieldBRLength:
			if produced >= len(out) {
				return produced, StatusMore
			}
			e.state = e.yieldBRLength(out, &produced)
		case stateSaveBacklog:
			e.state = e.saveBacklog()
		case stateFlushBits:
			if !e.bw.flushPending(out, &produced) {
				return produced, StatusMore
			}
			e.state = stateDone
		case stateDone:
			return produced, StatusEmpty
		default:
			return produced, StatusUnknown
		}
	}
}

// Finish marks the input stream closed; no further Sink may succeed. It returns
// StatusDone once the machine has reached its terminal state with any pending bits
// flushed, and StatusMore otherwise (meaning the caller must keep polling).
func (e *Encoder) Finish() Status {
	e.flags |= flagFinishing
	if e.state == stateNotFull {
		e.state = stateFilled
	}
	if e.state == stateDone {
		return StatusDone
	}
	return StatusMore
}

func (e *Encoder) stepSearch() encoderState {
	windowLength := e.inputBufferSize()
	lookaheadSz := e.lookaheadSize()
	msi := e.scanIndex
	finishing := e.flags&flagFinishing != 0

	// Safe without underflow: a non-finishing SEARCH is only reached once the
	// input region is completely full (inputSize == windowLength >= lookaheadSz);
	// when finishing, the bias is simply dropped.
	threshold := e.inputSize - lookaheadSz
	if finishing {
		threshold = e.inputSize
	}
	if msi >= threshold {
		return stateSaveBacklog
	}

	inputOffset := e.inputOffset()
	end := inputOffset + msi

	var start uint16
	switch {
	case e.flags&flagBacklogFilled != 0:
		start = end - windowLength + 1
	case e.flags&flagBacklogPartial != 0:
		start = end - windowLength + 1
		if start < lookaheadSz {
			start = lookaheadSz
		}
	default:
		start = inputOffset
	}

	maxPossible := lookaheadSz
	if e.inputSize-msi < lookaheadSz {
		maxPossible = e.inputSize - msi
	}

	pos, length := e.findLongestMatch(start, end, maxPossible)
	if pos == matchNotFound {
		e.scanIndex++
		e.matchLen = 0
		e.flags |= flagHasLiteral
		return stateYieldTagBit
	}
	e.matchPos = pos
	e.matchLen = length
	return stateYieldTagBit
}

func (e *Encoder) yieldTagBit(out []byte, produced *int) encoderState {
	if e.matchLen == 0 {
		e.bw.pushBits(1, literalMarker, out, produced)
		return stateYieldLiteral
	}
	e.bw.pushBits(1, backrefMarker, out, produced)
	e.outgoingBits = e.matchPos - 1
	e.outgoingBitsCount = e.windowBits
	return stateYieldBRIndex
}

func (e *Encoder) yieldLiteral(out []byte, produced *int) encoderState {
	processedOffset := e.scanIndex - 1
	c := e.buffer[e.inputOffset()+processedOffset]
	e.bw.pushBits(8, c, out, produced)
	e.flags &^= flagHasLiteral
	if e.flags&flagOnFinalLiteral != 0 {
		return stateFlushBits
	}
	if e.matchLen > 0 {
		return stateYieldTagBit
	}
	return stateSearch
}

func (e *Encoder) yieldBRIndex(out []byte, produced *int) encoderState {
	consumed := e.bw.pushOutgoingBits(e.outgoingBits, e.outgoingBitsCount, out, produced)
	e.outgoingBitsCount -= consumed
	if e.outgoingBitsCount > 0 {
		return stateYieldBRIndex
	}
	e.outgoingBits = e.matchLen - 1
	e.outgoingBitsCount = e.lookaheadBits
	return stateYieldBRLength
}

func (e *Encoder) yieldBRLength(out []byte, produced *int) encoderState {
	consumed := e.bw.pushOutgoingBits(e.outgoingBits, e.outgoingBitsCount, out, produced)
	e.outgoingBitsCount -= consumed
	if e.outgoingBitsCount > 0 {
		return stateYieldBRLength
	}
	e.scanIndex += e.matchLen
	e.matchLen = 0
	return stateSearch
}

func (e *Encoder) saveBacklog() encoderState {
	if e.flags&flagFinishing != 0 {
		if e.flags&flagHasLiteral != 0 {
			e.flags |= flagOnFinalLiteral
			return stateYieldTagBit
		}
		return stateFlushBits
	}
	e.rotateBacklog()
	return stateNotFull
}

// rotateBacklog shifts the whole buffer left by scanIndex bytes: the unprocessed tail
// of the input region moves to the start of the input region, and the bytes just
// before it (the processed input) land in the backlog slot in front of it, so they
// remain available as a backreference source for future matches.
func (e *Encoder) rotateBacklog() {
	inputBufSz := e.inputBufferSize()
	msi := e.scanIndex
	rem := inputBufSz - msi // unprocessed bytes

	copy(e.buffer, e.buffer[inputBufSz-rem:])

	if e.flags&flagBacklogPartial != 0 {
		e.flags |= flagBacklogFilled
	} else {
		e.flags |= flagBacklogPartial
	}
	e.scanIndex = 0
	e.inputSize -= inputBufSz - rem
}

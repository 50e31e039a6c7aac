package microshrink

import (
	"github.com/sirupsen/logrus"
)

// Decoder turns a bitstream produced by Encoder back into plaintext bytes, via the
// same Sink/Poll/Finish/Reset protocol Encoder uses.
type Decoder struct {
	windowBits    uint8
	lookaheadBits uint8
	ibs           uint16 // input ring capacity

	window []byte // power-of-two ring, size 1<<windowBits
	inbuf  []byte // input ring, size ibs

	inputSize  uint16 // bytes currently buffered in inbuf
	inputIndex uint16 // read cursor into inbuf

	headIndex uint16 // write cursor into window (low windowBits bits matter)

	outputIndex uint16 // pending backref's back-offset
	outputCount uint16 // pending backref's remaining length

	state decoderState
	br    bitReader

	log *logrus.Entry
}

type decoderState uint8

const (
	stateDecEmpty decoderState = iota
	stateDecInputAvailable
	stateDecYieldLiteral
	stateDecBackrefIndex
	stateDecBackrefCount
	stateDecYieldBackref
	stateDecCheckForMoreInput
)

// DecoderOption configures optional, non-default Decoder behavior.
type DecoderOption func(*Decoder)

// WithDecoderLogger attaches a logger for per-transition debug tracing. Without this
// option, the decoder logs nothing.
func WithDecoderLogger(logger *logrus.Logger) DecoderOption {
	return func(d *Decoder) { d.log = logger.WithField("component", "decoder") }
}

// NewDecoder allocates a decoder for the given window and lookahead bit-widths and
// an input ring of ibs bytes. It returns nil if the parameters are out of range or
// ibs is 0.
func NewDecoder(windowBits, lookaheadBits uint8, ibs uint16, opts ...DecoderOption) *Decoder {
	if !validParams(windowBits, lookaheadBits) || ibs == 0 {
		return nil
	}
	d := &Decoder{
		windowBits:    windowBits,
		lookaheadBits: lookaheadBits,
		ibs:           ibs,
		log:           disabledLogger("decoder"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.window = make([]byte, uint16(1)<<windowBits)
	d.inbuf = make([]byte, ibs)
	d.Reset()
	return d
}

// Reset returns the decoder to its initial state. The window and input ring are
// zeroed; Reset is idempotent and safe to call at any time.
func (d *Decoder) Reset() {
	for i := range d.window {
		d.window[i] = 0
	}
	for i := range d.inbuf {
		d.inbuf[i] = 0
	}
	d.state = stateDecEmpty
	d.inputSize = 0
	d.inputIndex = 0
	d.headIndex = 0
	d.outputIndex = 0
	d.outputCount = 0
	d.br.reset()
}

func (d *Decoder) windowMask() uint16 { return (uint16(1) << d.windowBits) - 1 }

// Sink copies as many bytes of in as fit in the input ring, reporting how many were
// accepted. It returns StatusFull (0 accepted) if the ring has no room, and
// StatusNull if in is nil.
func (d *Decoder) Sink(in []byte) (int, Status) {
	if in == nil {
		return 0, StatusNull
	}
	rem := int(d.ibs) - int(d.inputSize)
	if rem == 0 {
		return 0, StatusFull
	}
	sz := rem
	if len(in) < sz {
		sz = len(in)
	}
	copy(d.inbuf[d.inputSize:], in[:sz])
	d.inputSize += uint16(sz)
	if d.state == stateDecEmpty {
		d.state = stateDecInputAvailable
		d.inputIndex = 0
	}
	d.log.WithFields(logrus.Fields{"accepted": sz, "input_size": d.inputSize}).Debug("sink")
	return sz, StatusOK
}

// Poll advances the state machine, writing decoded bytes to out. It returns
// StatusEmpty when the machine cannot progress without more input (or is idle), and
// StatusMore when out filled before the machine blocked.
func (d *Decoder) Poll(out []byte) (int, Status) {
	if out == nil {
		return 0, StatusNull
	}
	if len(out) == 0 {
		return 0, StatusMisuse
	}
	produced := 0
	for {
		inState := d.state
		d.log.WithFields(logrus.Fields{"state": d.state, "input_size": d.inputSize}).Trace("poll")
		switch d.state {
		case stateDecEmpty:
			return produced, StatusEmpty
		case stateDecInputAvailable:
			d.state = d.stepInputAvailable()
		case stateDecYieldLiteral:
			d.state = d.stepYieldLiteral(out, &produced)
		case stateDecBackrefIndex:
			d.state = d.stepBackrefIndex()
		case stateDecBackrefCount:
			d.state = d.stepBackrefCount()
		case stateDecYieldBackref:
			d.state = d.stepYieldBackref(out, &produced)
		case stateDecCheckForMoreInput:
			d.state = d.stepCheckForMoreInput()
		default:
			return produced, StatusUnknown
		}
		if d.state == inState {
			if produced == len(out) {
				return produced, StatusMore
			}
			return produced, StatusEmpty
		}
	}
}

// Finish reports whether decoding has reached a clean end. A stuck BACKREF_INDEX,
// BACKREF_COUNT, or YIELD_LITERAL with no remaining input is the trailing zero
// padding of the final byte, and resolves to DONE rather than a spurious token; any
// other stuck state with input still pending is MORE.
func (d *Decoder) Finish() Status {
	switch d.state {
	case stateDecEmpty:
		return StatusDone
	case stateDecBackrefIndex, stateDecBackrefCount, stateDecYieldLiteral:
		if d.inputSize == 0 {
			return StatusDone
		}
		return StatusMore
	default:
		return StatusMore
	}
}

func (d *Decoder) pullByte() (uint8, bool) {
	if d.inputSize == 0 {
		return 0, false
	}
	b := d.inbuf[d.inputIndex]
	d.inputIndex++
	if d.inputIndex == d.inputSize {
		d.inputIndex = 0
		d.inputSize = 0
	}
	return b, true
}

func (d *Decoder) stepInputAvailable() decoderState {
	bits := d.br.getBits(1, d.inputSize == 0, d.pullByte)
	if bits == noBits {
		return stateDecInputAvailable
	}
	if bits != 0 {
		return stateDecYieldLiteral
	}
	return stateDecBackrefIndex
}

func (d *Decoder) stepYieldLiteral(out []byte, produced *int) decoderState {
	if *produced >= len(out) {
		return stateDecYieldLiteral
	}
	bits := d.br.getBits(8, d.inputSize == 0, d.pullByte)
	if bits == noBits {
		return stateDecYieldLiteral
	}
	c := uint8(bits)
	mask := d.windowMask()
	d.window[d.headIndex&mask] = c
	d.headIndex++
	out[*produced] = c
	*produced++
	return stateDecCheckForMoreInput
}

func (d *Decoder) stepBackrefIndex() decoderState {
	bits := d.br.getBits(d.windowBits, d.inputSize == 0, d.pullByte)
	if bits == noBits {
		return stateDecBackrefIndex
	}
	d.outputIndex = uint16(bits) + 1
	return stateDecBackrefCount
}

func (d *Decoder) stepBackrefCount() decoderState {
	bits := d.br.getBits(d.lookaheadBits, d.inputSize == 0, d.pullByte)
	if bits == noBits {
		return stateDecBackrefCount
	}
	d.outputCount = uint16(bits) + 1
	return stateDecYieldBackref
}

// stepYieldBackref copies a run from the window to out, self-overlap included (an
// offset of 1 and length N legitimately emits N copies of the last byte), draining
// as much of the pending count as the remaining room in out allows in one pass.
func (d *Decoder) stepYieldBackref(out []byte, produced *int) decoderState {
	room := len(out) - *produced
	if room <= 0 {
		return stateDecYieldBackref
	}
	count := int(d.outputCount)
	if count > room {
		count = room
	}
	mask := d.windowMask()
	negOffset := d.outputIndex
	for i := 0; i < count; i++ {
		c := d.window[(d.headIndex-negOffset)&mask]
		out[*produced] = c
		*produced++
		d.window[d.headIndex&mask] = c
		d.headIndex++
	}
	d.outputCount -= uint16(count)
	if d.outputCount == 0 {
		return stateDecCheckForMoreInput
	}
	return stateDecYieldBackref
}

func (d *Decoder) stepCheckForMoreInput() decoderState {
	if d.inputSize == 0 {
		return stateDecEmpty
	}
	return stateDecInputAvailable
}

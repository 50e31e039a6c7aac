package microshrink

// match.go implements the encoder's longest-match search: given the bytes about to
// be scanned ("the needle"), find the longest run already present in the window
// that equals a prefix of it. Two equivalent implementations are provided, selected
// by SearchMode — they must always agree on (length, position), tie-broken toward
// the most recent match.

// SearchMode selects how Encoder.Poll finds backreference candidates. Both modes
// produce byte-identical output for the same (window bits, lookahead bits) pair;
// SearchHashChain trades O(2^W) bytes of extra RAM for a much faster search on large
// windows.
type SearchMode int

const (
	// SearchLinear walks every earlier window position from most to least recent.
	// O(window size) per search step, no extra memory.
	SearchLinear SearchMode = iota
	// SearchHashChain maintains a per-byte-value linked list over the window,
	// rebuilt whenever the input region fills, so the search only visits positions
	// that start with the same byte as the needle.
	SearchHashChain
)

// matchNotFound is the sentinel position meaning "no match of sufficient length".
const matchNotFound = uint16(0xffff)

// indexNone is the hash-chain sentinel meaning "no earlier position with this byte
// value". Kept as its own named constant from matchNotFound even though the two
// share a numeric value, since they answer different questions (a match search
// result vs. a chain link).
const indexNone = uint16(0xffff)

// breakEvenLength is the match length below which a backreference costs more bits
// than the literals it would replace. A match must beat this length (i.e. be at least
// breakEvenLength+1 == 3 bytes) to be worth emitting; this is a fixed property of the
// bitstream format (1 tag bit + W + L bits per backref vs. 9 bits per literal), not a
// function of W or L.
const breakEvenLength = 2

// findLongestMatch finds the longest match for the up-to-maxLen bytes starting at
// e.buffer[end], searching candidate positions in [start, end) and preferring the
// most recent one on ties. It returns the match's back-offset (end minus the
// candidate's position) and its length, or matchNotFound if the best candidate is
// too short to beat breakEvenLength.
func (e *Encoder) findLongestMatch(start, end, maxLen uint16) (pos, length uint16) {
	if start == end {
		return matchNotFound, 0
	}
	if e.searchMode == SearchHashChain {
		return e.findLongestMatchIndexed(start, end, maxLen)
	}
	return e.findLongestMatchLinear(start, end, maxLen)
}

func (e *Encoder) findLongestMatchLinear(start, end, maxLen uint16) (uint16, uint16) {
	buf := e.buffer
	needle := buf[end:]

	bestLen := uint16(0)
	bestPos := matchNotFound

	for pos := end - 1; ; pos-- {
		cand := buf[pos:]
		var l uint16
		for l = 0; l < maxLen; l++ {
			if cand[l] != needle[l] {
				break
			}
		}
		if l > breakEvenLength && l > bestLen {
			bestLen = l
			bestPos = pos
			if l == maxLen {
				break
			}
		}
		if pos == start {
			break
		}
	}

	if bestLen > 0 {
		return end - bestPos, bestLen
	}
	return matchNotFound, 0
}

// findLongestMatchIndexed walks the hash chain rooted at e.searchIndex[end], which
// only ever visits positions starting with the same byte as the needle. Every link
// and the walk cursor itself are plain uint16 buffer offsets, matching the width of
// the buffer they index into, so the chain can run all the way up to the largest
// legal window (2^15 bytes) without a position wrapping into something that looks
// like the indexNone sentinel or a negative offset.
func (e *Encoder) findLongestMatchIndexed(start, end, maxLen uint16) (uint16, uint16) {
	buf := e.buffer
	needle := buf[end:]

	bestLen := uint16(0)
	bestPos := matchNotFound

	pos := e.searchIndex[end]
	for pos != indexNone && pos >= start {
		cand := buf[pos:]
		var l uint16
		for l = 0; l < maxLen; l++ {
			if cand[l] != needle[l] {
				break
			}
		}
		if l > breakEvenLength && l > bestLen {
			bestLen = l
			bestPos = pos
			if l == maxLen {
				break
			}
		}
		pos = e.searchIndex[pos]
	}

	if bestLen > 0 {
		return end - bestPos, bestLen
	}
	return matchNotFound, 0
}

// buildSearchIndex rebuilds the per-byte hash chains over the valid prefix of the
// buffer. index[i] becomes the previous position with the same byte value as
// buffer[i], or indexNone if there is none; it is rebuilt every time the input
// region fills, since backlog rotation can shift buffer contents around.
func (e *Encoder) buildSearchIndex() {
	var last [256]uint16
	for i := range last {
		last[i] = indexNone
	}
	data := e.buffer
	index := e.searchIndex
	// end is computed as int, not uint16: inputOffset()+inputSize can reach
	// 2^(windowBits+1), which overflows a 16-bit loop bound at the largest window.
	end := int(e.inputOffset()) + int(e.inputSize)
	for i := 0; i < end; i++ {
		v := data[i]
		index[i] = last[v]
		last[v] = uint16(i)
	}
}

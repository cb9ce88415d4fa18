package input

import "bytes"

// LineIterator yields successive Lines until exhausted.
type LineIterator interface {
	// Next returns the next line, or ok=false once exhausted.
	Next() (line Line, ok bool)
}

// IterLines returns an iterator over every line in the buffer, in order.
func (b *Buffer) IterLines() LineIterator {
	return newScanIter(b.data, 0, false)
}

// scanIter walks a byte slice newline-by-newline.
type scanIter struct {
	remaining []byte
	offset    int
}

func newScanIter(data []byte, baseOffset int, skipFirst bool) *scanIter {
	it := &scanIter{remaining: data, offset: baseOffset}
	if skipFirst {
		it.next()
	}
	return it
}

func (it *scanIter) Next() (Line, bool) {
	return it.next()
}

func (it *scanIter) next() (Line, bool) {
	if len(it.remaining) == 0 {
		return Line{}, false
	}
	idx := bytes.IndexByte(it.remaining, nl)
	var data []byte
	if idx < 0 {
		data = it.remaining
		it.remaining = nil
	} else {
		data = it.remaining[:idx+1]
		it.remaining = it.remaining[idx+1:]
	}
	line := Line{Offset: it.offset, Data: data}
	it.offset += len(data)
	return line, true
}

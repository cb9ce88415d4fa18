package input

import (
	"bytes"

	"github.com/grailbio/joinbench/internal/pow2"
	"golang.org/x/sys/unix"
)

// DivideChunks splits the buffer into at most count-1 line-iterators
// suitable for handing to independent workers, each yielding the lines
// that lie wholly inside its chunk, plus one trailing iterator over the
// lines that straddle chunk boundaries.
//
// count < 3 can't usefully be divided (there would be no worker left to
// own the boundary lines), so it degrades to a single iterator over the
// whole buffer. sizeHint of 0 means "use the OS page size".
func (b *Buffer) DivideChunks(count, sizeHint int) []LineIterator {
	if count < 3 {
		return []LineIterator{newScanIter(b.data, 0, false)}
	}

	pageSize := sizeHint
	if pageSize == 0 {
		pageSize = unix.Getpagesize()
	}
	workers := count - 1
	chunkSize := bestChunkSize(workers, pageSize, len(b.data))

	var iters []LineIterator
	for i, off := 0, 0; off < len(b.data); i, off = i+1, off+chunkSize {
		end := off + chunkSize
		if end > len(b.data) {
			end = len(b.data)
		}
		window := b.data[off:end]
		if end < len(b.data) {
			// The window's trailing partial line belongs to the boundary
			// iterator, so this window stops at its last newline.
			if last := bytes.LastIndexByte(window, nl); last >= 0 {
				window = window[:last+1]
			}
		}
		iters = append(iters, newScanIter(window, off, i > 0))
	}
	iters = append(iters, &boundaryIter{full: b.data, chunkSize: chunkSize})
	return iters
}

// bestChunkSize picks the per-worker chunk size: the page size itself if
// that many workers already cover the whole buffer, otherwise the minimum
// even split rounded up to the next multiple of the page size (so that
// boundary scans never need to search across more than one page).
func bestChunkSize(workers, pageSize, length int) int {
	base2 := pow2.CeilPow2(pageSize)
	if workers*pageSize >= length {
		return base2
	}
	minPerWorker := (length + workers - 1) / workers
	return ceilToMultiple(minPerWorker, base2)
}

func ceilToMultiple(x, pow2 int) int {
	return (x + pow2 - 1) &^ (pow2 - 1)
}

// boundaryIter produces, per chunkSize-sized step through full, the single
// line spanning that step's boundary: from the last newline before the
// boundary to the first newline after it, inclusive. It yields nothing for
// the final (possibly short) chunk, which has no successor to straddle
// into.
type boundaryIter struct {
	full      []byte
	base      int
	chunkSize int
}

func (it *boundaryIter) Next() (Line, bool) {
	if len(it.full) < it.chunkSize {
		return Line{}, false
	}
	prev, rest := it.full[:it.chunkSize], it.full[it.chunkSize:]
	startRel := bytes.LastIndexByte(prev, nl)
	if startRel < 0 {
		return Line{}, false
	}
	start := startRel + 1
	endRel := bytes.IndexByte(rest, nl)
	if endRel < 0 {
		return Line{}, false
	}
	end := it.chunkSize + endRel

	line := Line{Offset: it.base + start, Data: it.full[start : end+1]}
	it.base += len(prev)
	it.full = rest
	return line, true
}

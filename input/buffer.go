package input

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/grailbio/base/errors"
	pkgerrors "github.com/pkg/errors"
)

// Buffer is the memory-mapped, process-lifetime byte region backing every
// Str and Field produced from it. It must be closed once, after every Str
// and Field derived from it has gone out of use.
type Buffer struct {
	path string
	file *os.File
	data mmap.MMap
}

// Open memory-maps path read-only.
func Open(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "cannot open %q", path)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, pkgerrors.Wrapf(err, "cannot mmap %q", path)
	}
	return &Buffer{path: path, file: f, data: data}, nil
}

// Close unmaps the buffer and closes the underlying file.
func (b *Buffer) Close() error {
	if err := b.data.Unmap(); err != nil {
		return pkgerrors.Wrapf(err, "unmap %q", b.path)
	}
	return b.file.Close()
}

// Path returns the path the buffer was opened from.
func (b *Buffer) Path() string {
	return b.path
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the full mapped region. Callers must not retain slices of
// it past Close.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// ExtractStr returns the Str view starting at field's offset. field must be
// valid and must point at the start of a well-formed field; violating
// either is an internal invariant failure.
func (b *Buffer) ExtractStr(field Field) Str {
	if !field.Valid() {
		panicInvariant("ExtractStr called with Field.Invalid")
	}
	remaining := b.data[field.Offset():]
	n, err := fieldLen(remaining)
	if err != nil {
		panicInvariant("ExtractStr: %v", err)
	}
	return Str{data: remaining[:n]}
}

// ExtractField returns the offset of s within the buffer. s must be a
// sub-slice of b.Bytes(); calling this with a Str built any other way (for
// example via NewStr) is an internal invariant failure.
func (b *Buffer) ExtractField(s Str) Field {
	if len(b.data) == 0 || len(s.data) == 0 {
		panicInvariant("ExtractField: empty buffer or Str")
	}
	base := uintptr(unsafe.Pointer(&b.data[0]))
	ptr := uintptr(unsafe.Pointer(&s.data[0]))
	end := base + uintptr(len(b.data))
	if ptr < base || ptr >= end {
		panicInvariant("ExtractField: Str is not a view into this buffer")
	}
	return Field(ptr - base)
}

func panicInvariant(format string, args ...interface{}) {
	panic(errors.E(errors.Internal, fmt.Sprintf(format, args...)))
}

package input

import (
	"strings"

	gunsafe "github.com/grailbio/base/unsafe"
)

// Str is a read-only view into a Buffer's bytes. Equality and ordering are
// byte-wise over the slice contents; decoding to text is lossy UTF-8 and is
// meant for output only.
type Str struct {
	data []byte
}

// NewStr wraps an arbitrary byte slice as a Str. Unlike a Str produced by a
// Buffer, the result cannot be round-tripped through ExtractField.
func NewStr(s string) Str {
	return Str{data: gunsafe.StringToBytes(s)}
}

// Bytes returns the raw bytes backing s.
func (s Str) Bytes() []byte {
	return s.data
}

// Len returns the number of bytes in s.
func (s Str) Len() int {
	return len(s.data)
}

// String lossily decodes s as UTF-8, replacing each run of invalid bytes
// with U+FFFD. Only call this on output paths; it allocates.
func (s Str) String() string {
	return strings.ToValidUTF8(string(s.data), "�")
}

// Key returns a zero-copy string view of s suitable for use as a map key.
// The string aliases the buffer's bytes, so it is only valid while the
// Buffer is open.
func (s Str) Key() string {
	return gunsafe.BytesToString(s.data)
}

// Equal reports whether s and o have identical contents.
func (s Str) Equal(o Str) bool {
	return s.Key() == o.Key()
}

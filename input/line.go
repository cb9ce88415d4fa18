package input

import (
	"bytes"

	"github.com/grailbio/base/errors"
)

const (
	nl     = '\n'
	tab    = '\t'
	space  = ' '
	dquote = '"'
)

// Line is a single record: the byte offset of its first byte, and the
// slice of the buffer it occupies (newline-terminated, except possibly the
// final line of the file).
type Line struct {
	Offset int
	Data   []byte
}

// Triple is a parsed (subject, property, object) record.
type Triple struct {
	Subject  Str
	Property Str
	Object   Str
}

// Parse splits l into its three tab-separated fields. It fails if a quoted
// field is unterminated, or if the subject or property field runs to the
// end of the line with no terminating TAB/SPACE. The object field, being
// last, terminates at the line's newline or at end-of-data with no error.
func (l Line) Parse() (Triple, error) {
	subjLen, err := fieldLen(l.Data)
	if err != nil {
		return Triple{}, errors.E(err, "parsing subject")
	}
	rest, err := afterField(l.Data, subjLen)
	if err != nil {
		return Triple{}, errors.E(err, "parsing subject")
	}
	propLen, err := fieldLen(rest)
	if err != nil {
		return Triple{}, errors.E(err, "parsing property")
	}
	afterProp, err := afterField(rest, propLen)
	if err != nil {
		return Triple{}, errors.E(err, "parsing property")
	}
	objLen, err := fieldLen(afterProp)
	if err != nil {
		return Triple{}, errors.E(err, "parsing object")
	}
	return Triple{
		Subject:  Str{data: l.Data[:subjLen]},
		Property: Str{data: rest[:propLen]},
		Object:   Str{data: afterProp[:objLen]},
	}, nil
}

// afterField returns the data remaining after a field of length n and its
// terminating TAB/SPACE/newline, failing if the field ran to the end of
// data with no terminator to skip over — the subject and property fields
// must each be followed by another field, unlike the object field.
func afterField(data []byte, n int) ([]byte, error) {
	if n >= len(data) {
		return nil, errors.E(errors.Invalid, "missing terminating TAB or SPACE")
	}
	return data[n+1:], nil
}

// fieldLen measures the length of the field starting at data[0]: a quoted
// field runs through the next double-quote inclusive, an unquoted field
// runs up to (not including) the next TAB, SPACE, or newline. A field with
// none of those in its remainder runs to the end of data, which is how the
// object field of the last line of a file (with no trailing newline)
// terminates.
func fieldLen(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.E(errors.Invalid, "empty field")
	}
	if data[0] == dquote {
		idx := bytes.IndexByte(data[1:], dquote)
		if idx < 0 {
			return 0, errors.E(errors.Invalid, "unterminated quoted field")
		}
		return idx + 2, nil
	}
	idx := bytes.IndexAny(data, "\t \n")
	if idx < 0 {
		return len(data), nil
	}
	return idx, nil
}

package input

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "joinbench-input-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func openTemp(t *testing.T, contents string) *Buffer {
	t.Helper()
	b, err := Open(writeTemp(t, contents))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestParseLineRoundTrip(t *testing.T) {
	b := openTemp(t, "a\tp\tx\nb\tp\ty\n")
	var got []string
	it := b.IterLines()
	for {
		ln, ok := it.Next()
		if !ok {
			break
		}
		triple, err := ln.Parse()
		require.NoError(t, err)
		got = append(got, triple.Subject.String()+"\t"+triple.Property.String()+"\t"+triple.Object.String()+"\n")
	}
	assert.Equal(t, []string{"a\tp\tx\n", "b\tp\ty\n"}, got)
}

func TestParseLineNoTrailingNewline(t *testing.T) {
	b := openTemp(t, "a\tp\tx\nb\tp\ty")
	it := b.IterLines()
	_, ok := it.Next()
	require.True(t, ok)
	ln, ok := it.Next()
	require.True(t, ok)
	triple, err := ln.Parse()
	require.NoError(t, err)
	assert.Equal(t, "y", triple.Object.String())
}

func TestParseLineQuotedField(t *testing.T) {
	b := openTemp(t, "\"a b\"\tp\tx\n")
	it := b.IterLines()
	ln, _ := it.Next()
	triple, err := ln.Parse()
	require.NoError(t, err)
	assert.Equal(t, `"a b"`, triple.Subject.String())
}

func TestParseLineUnterminatedQuote(t *testing.T) {
	b := openTemp(t, "\"a\tp\tx\n")
	it := b.IterLines()
	ln, _ := it.Next()
	_, err := ln.Parse()
	assert.Error(t, err)
}

func TestParseLineMissingTerminator(t *testing.T) {
	b := openTemp(t, "abc")
	it := b.IterLines()
	ln, _ := it.Next()
	_, err := ln.Parse()
	assert.Error(t, err)
}

func TestExtractFieldRoundTrip(t *testing.T) {
	b := openTemp(t, "a\tp\tx\n")
	it := b.IterLines()
	ln, _ := it.Next()
	triple, err := ln.Parse()
	require.NoError(t, err)

	f := b.ExtractField(triple.Subject)
	assert.True(t, f.Valid())
	assert.Equal(t, "a", b.ExtractStr(f).String())
}

func TestExtractFieldRejectsForeignStr(t *testing.T) {
	b := openTemp(t, "a\tp\tx\n")
	defer func() {
		assert.NotNil(t, recover())
	}()
	b.ExtractField(NewStr("a"))
}

func TestDivideChunksPartitionsWithoutOverlap(t *testing.T) {
	var contents string
	for i := 0; i < 5000; i++ {
		contents += "subject-aaaaaaaaaaaaaaaaaaaaa\tprop\tobject-bbbbbbbbbbbbbbbbbbbbbbb\n"
	}
	b := openTemp(t, contents)

	for _, count := range []int{1, 2, 3, 4, 8, 17} {
		iters := b.DivideChunks(count, 256)
		seen := make([]bool, len(b.data))
		var lineCount int
		for _, it := range iters {
			for {
				ln, ok := it.Next()
				if !ok {
					break
				}
				lineCount++
				for i := 0; i < len(ln.Data); i++ {
					require.False(t, seen[ln.Offset+i], "byte %d covered twice (count=%d)", ln.Offset+i, count)
					seen[ln.Offset+i] = true
				}
			}
		}
		for i, s := range seen {
			require.True(t, s, "byte %d never covered (count=%d)", i, count)
		}
		assert.Equal(t, 5000, lineCount, "count=%d", count)
	}
}

func TestDivideChunksSmallCountIsSingleIterator(t *testing.T) {
	b := openTemp(t, "a\tp\tx\nb\tp\ty\n")
	iters := b.DivideChunks(2, 0)
	require.Len(t, iters, 1)
}

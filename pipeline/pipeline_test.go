package pipeline

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/grailbio/joinbench/catalogue"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/joinrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, contents string) *input.Buffer {
	t.Helper()
	f, err := ioutil.TempFile("", "joinbench-pipeline-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	b, err := input.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func buildUniverse(t *testing.T, buf *input.Buffer, names ...string) catalogue.Universe {
	t.Helper()
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	u, err := catalogue.Build(buf, wanted)
	require.NoError(t, err)
	return u
}

func TestBuildTwoRelationChain(t *testing.T) {
	buf := openTemp(t, "a\tp\tb\nb\tq\tc\n")
	universe := buildUniverse(t, buf, "p", "q")

	pl, err := Build(buf, universe, []string{"p", "q"})
	require.NoError(t, err)
	require.Len(t, pl.Relations, 2)
	require.Len(t, pl.Relations[0], 1)
	require.Len(t, pl.Relations[1], 1)

	assert.Equal(t, pl.Relations[0][0].Object, pl.Relations[1][0].Subject)
	assert.Equal(t, "a", buf.ExtractStr(pl.Relations[0][0].Subject).String())
	assert.Equal(t, "c", buf.ExtractStr(pl.Relations[1][0].Object).String())
}

func TestBuildThreeRelationChainPerRelationDictionaries(t *testing.T) {
	buf := openTemp(t, "a\tp\tb\nb\tq\tc\nx\tq\ty\ny\tr\tz\n")
	universe := buildUniverse(t, buf, "p", "q", "r")

	pl, err := Build(buf, universe, []string{"p", "q", "r"})
	require.NoError(t, err)
	require.Len(t, pl.Relations, 3)
	// q's "x q y" row has no matching p-object "x", so it drops out of the
	// middle relation (resolved against p's dictionary). r's dictionary
	// lookup is against q's own object dictionary, built independently in
	// phase one, so "y r z" still resolves via that row's object Field —
	// the two phases each filter against only their immediate predecessor,
	// per the chain-of-dictionaries algorithm; the join engine applying
	// these relations pairwise is what makes the full chain exact.
	assert.Len(t, pl.Relations[1], 1)
	assert.Len(t, pl.Relations[2], 1)
}

func TestBuildUnknownRelationAggregatesNames(t *testing.T) {
	buf := openTemp(t, "a\tp\tb\n")
	universe := buildUniverse(t, buf, "p")

	_, err := Build(buf, universe, []string{"p", "missing1", "missing2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing1")
	assert.Contains(t, err.Error(), "missing2")
}

func TestBuildFewerThanTwoRelationsFails(t *testing.T) {
	buf := openTemp(t, "a\tp\tb\n")
	universe := buildUniverse(t, buf, "p")

	_, err := Build(buf, universe, []string{"p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no join to be performed")
}

func TestBuildRangeCoversJoinedSubjects(t *testing.T) {
	buf := openTemp(t, "a\tp\tb\nc\tp\td\nb\tq\te\n")
	universe := buildUniverse(t, buf, "p", "q")

	pl, err := Build(buf, universe, []string{"p", "q"})
	require.NoError(t, err)
	assert.Equal(t, joinrel.Unset, pl.Ranges[0])
	assert.NotEqual(t, joinrel.Unset, pl.Ranges[1])
}

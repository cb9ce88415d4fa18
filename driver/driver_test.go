package driver

import (
	"io/ioutil"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "joinbench-driver-*.tsv")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestRunScenarioS1(t *testing.T) {
	path := writeTemp(t, "a\tp\tx\nb\tp\ty\nx\tq\t1\ny\tq\t2\nz\tq\t3\n")
	result, err := Run(Request{Path: path, Relations: []string{"p", "q"}, Mode: Hash})
	require.NoError(t, err)
	defer result.Buf.Close()
	assert.Len(t, result.Rows, 2)
}

func TestRunUnknownRelation(t *testing.T) {
	path := writeTemp(t, "a\tp\tx\n")
	_, err := Run(Request{Path: path, Relations: []string{"p", "missing"}, Mode: Hash})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestRunFewerThanTwoRelations(t *testing.T) {
	path := writeTemp(t, "a\tp\tx\n")
	_, err := Run(Request{Path: path, Relations: []string{"p"}, Mode: Hash})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no join to be performed")
}

func TestRunMissingFile(t *testing.T) {
	_, err := Run(Request{Path: "/nonexistent/path", Relations: []string{"p", "q"}, Mode: Hash})
	require.Error(t, err)
}

func TestRunJobsCapsAndRestoresGOMAXPROCS(t *testing.T) {
	before := runtime.GOMAXPROCS(0)

	path := writeTemp(t, "a\tp\tx\nx\tq\t1\n")
	result, err := Run(Request{Path: path, Relations: []string{"p", "q"}, Mode: Hash, Jobs: 1})
	require.NoError(t, err)
	defer result.Buf.Close()

	assert.Equal(t, before, runtime.GOMAXPROCS(0), "GOMAXPROCS should be restored after Run returns")
}

func TestRunHashAndSortMergeAgree(t *testing.T) {
	path := writeTemp(t, "a\tp\tx\nx\tq\t1\nx\tq\t2\n")
	hashResult, err := Run(Request{Path: path, Relations: []string{"p", "q"}, Mode: Hash})
	require.NoError(t, err)
	defer hashResult.Buf.Close()

	sortResult, err := Run(Request{Path: path, Relations: []string{"p", "q"}, Mode: SortMerge})
	require.NoError(t, err)
	defer sortResult.Buf.Close()

	assert.Equal(t, len(hashResult.Rows), len(sortResult.Rows))
}

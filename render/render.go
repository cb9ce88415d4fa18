// Package render is the external collaborator the core hands finished
// results to: ASCII-table printing of join rows and relations, chunk
// division summaries, and terminal colour detection. None of it is
// consumed by catalogue, pipeline, or join; it is wired in by cmd/joinbench.
package render

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/minio/highwayhash"

	"github.com/grailbio/joinbench/catalogue"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/join"
)

// ColourEnabled reports whether stderr is a terminal that wants ANSI
// colour, honouring NO_COLOR and TERM=dumb. It is derived once by the
// command-line layer and is not consulted by the core.
func ColourEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

// Table writes rows as an ASCII table with header, decoding every Field
// through buf. limit caps the number of printed rows (0 means no cap);
// the final line reports the true row count even when capped.
func Table(w io.Writer, buf *input.Buffer, header []string, rows []join.Row, limit int) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, joinHeader(header))
	shown := len(rows)
	if limit > 0 && shown > limit {
		shown = limit
	}
	for _, row := range rows[:shown] {
		fmt.Fprintln(tw, formatRow(buf, row))
	}
	tw.Flush()
	if limit > 0 && len(rows) > limit {
		fmt.Fprintf(w, "... (%d more rows, %d total)\n", len(rows)-shown, len(rows))
	} else {
		fmt.Fprintf(w, "%d rows\n", len(rows))
	}
}

func joinHeader(header []string) string {
	out := ""
	for i, h := range header {
		if i > 0 {
			out += "\t"
		}
		out += h
	}
	return out
}

func formatRow(buf *input.Buffer, row join.Row) string {
	out := ""
	for i, f := range row {
		if i > 0 {
			out += "\t"
		}
		if !f.Valid() {
			out += "<invalid>"
			continue
		}
		out += buf.ExtractStr(f).String()
	}
	return out
}

// Relation prints a catalogue relation (string form) as a two-column
// table, for the -show-table flag.
func Relation(w io.Writer, name string, rel catalogue.Relation, limit int) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\nsubject\tobject\n", name)
	shown := len(rel)
	if limit > 0 && shown > limit {
		shown = limit
	}
	for _, e := range rel[:shown] {
		fmt.Fprintf(tw, "%s\t%s\n", e.Subject.String(), e.Object.String())
	}
	tw.Flush()
}

// Properties prints the list of distinct property names, for -list-relations.
func Properties(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

// ChunkInfo is one chunk's byte/line counts, for -show-chunks.
type ChunkInfo struct {
	Index     int
	Bytes     int
	Lines     int
	Checksum  uint64 // only set when debug is true
	HasDigest bool
}

// Chunks prints a summary of a buffer's chunk division. For each chunk
// with HasDigest set, its HighwayHash-64 checksum of its covered bytes is
// included (a cheap way to visually confirm two runs chunked the same
// buffer identically without diffing the whole file).
func Chunks(w io.Writer, infos []ChunkInfo) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "chunk\tbytes\tlines\tchecksum")
	for _, c := range infos {
		if c.HasDigest {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%016x\n", c.Index, c.Bytes, c.Lines, c.Checksum)
		} else {
			fmt.Fprintf(tw, "%d\t%d\t%d\t-\n", c.Index, c.Bytes, c.Lines)
		}
	}
	tw.Flush()
}

var highwayKey [32]byte // zero key: checksums are for run-to-run comparison, not security

// Checksum computes the debug per-chunk digest used by Chunks.
func Checksum(data []byte) uint64 {
	return highwayhash.Sum64(data, highwayKey[:])
}

// Colourf formats an error-severity message in red when colour is wanted.
func Colourf(enabled bool, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if !enabled {
		return msg
	}
	return color.New(color.FgRed).Sprint(msg)
}

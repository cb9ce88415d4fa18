// Package driver orchestrates one run of the join engine: open the input,
// build the catalogue, build the pipeline, and run the chosen join engine
// once per relation in order. It is the glue the command-line entry point
// drives; the actual algorithms live in catalogue, pipeline, and join.
package driver

import (
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/joinbench/catalogue"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/join"
	"github.com/grailbio/joinbench/pipeline"
)

// Mode selects which join engine Run uses.
type Mode int

const (
	// Hash selects the hash-join engine.
	Hash Mode = iota
	// SortMerge selects the sort-merge-join engine.
	SortMerge
)

// Request is a fully-parsed user request, the contract the command-line
// layer is responsible for producing.
type Request struct {
	Path      string
	Relations []string
	Mode      Mode
	Improved  bool
	// Jobs caps the worker pool every traverse.Each fan-out in pipeline
	// and join draws from. Zero means detect hardware parallelism (leave
	// GOMAXPROCS as the runtime already has it).
	Jobs int
}

// Result is a finished run's output: the joined rows still in field form,
// plus the buffer they reference (needed to decode Fields for display)
// and the relation names in join order, for labelling columns.
type Result struct {
	Buf       *input.Buffer
	Relations []string
	Rows      []join.Row
}

// Run executes req end to end. The returned Buffer is left open so the
// caller can decode the result's Fields; the caller must Close it.
func Run(req Request) (*Result, error) {
	if len(req.Relations) < 2 {
		return nil, errors.E(errors.Invalid, "no join to be performed")
	}

	if req.Jobs > 0 {
		defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(req.Jobs))
		log.Debug.Printf("worker pool capped at %d jobs", req.Jobs)
	}

	buf, err := input.Open(req.Path)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("opened %s (%d bytes)", req.Path, buf.Len())

	wanted := make(map[string]bool, len(req.Relations))
	for _, name := range req.Relations {
		wanted[name] = true
	}
	universe, err := catalogue.Build(buf, wanted)
	if err != nil {
		buf.Close()
		return nil, err
	}
	log.Debug.Printf("catalogue built: %d relations", len(universe))

	pl, err := pipeline.Build(buf, universe, req.Relations)
	if err != nil {
		buf.Close()
		return nil, err
	}
	log.Debug.Printf("pipeline built: %d relations", len(pl.Relations))

	engine := newEngine(req.Mode, req.Improved)
	width := len(pl.Relations)
	for i, rel := range pl.Relations {
		engine.Step(width, i, rel, pl.Ranges[i])
		log.Printf("step %d/%d (%s): %d rows", i, width-1, req.Relations[i], len(engine.Rows()))
	}

	return &Result{Buf: buf, Relations: req.Relations, Rows: engine.Rows()}, nil
}

func newEngine(mode Mode, improved bool) join.Engine {
	switch mode {
	case Hash:
		return &join.HashJoin{Improved: improved}
	case SortMerge:
		return &join.SortMerge{Improved: improved}
	default:
		panic(fmt.Sprintf("driver: unknown mode %d", mode))
	}
}

package main

// joinbench compares a hash-join and a sort-merge-join, each in a naive
// and a parallel-partitioned "improved" variant, over a memory-mapped
// tab-separated triple file.
//
// Usage: joinbench [flags] <file> <relation>...

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/joinbench/catalogue"
	"github.com/grailbio/joinbench/driver"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/internal/textutil"
	"github.com/grailbio/joinbench/render"
)

var (
	hashFlag          = flag.Bool("hash", false, "use the hash-join engine")
	sortFlag          = flag.Bool("sort", false, "use the sort-merge-join engine")
	improvedFlag      = flag.Bool("improved", false, "use the parallel-partitioned variant of the chosen engine")
	jobsFlag          = flag.Int("jobs", 0, "worker count (0 = detect hardware parallelism)")
	chunkSizeFlag     = flag.Int("chunk-size", 0, "chunk size in bytes (0 = page size)")
	listRelationsFlag = flag.Bool("list-relations", false, "list every distinct relation name in the file and exit")
	showChunksFlag    = flag.Bool("show-chunks", false, "report the input's chunk division and exit")
	printFlag         = flag.Bool("print", true, "print the result rows")
	printCountFlag    = flag.Int("print-count", 10, "maximum number of result rows to print (0 = all)")
	debugFlag         = flag.Bool("debug", false, "include per-chunk checksums in -show-chunks")
)

var showTableFlags stringList

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func init() {
	flag.Var(&showTableFlags, "show-table", "dump a named relation's rows and exit (repeatable)")
}

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: joinbench [flags] <file> <relation>...

joinbench joins the named relations from <file>, in the given order, using
exactly one of -hash or -sort. JOINBENCH_ARGS, if set, is whitespace-split
and appended to the command line.

`)
		flag.PrintDefaults()
	}

	args := append(append([]string{}, os.Args[1:]...), envArgs()...)
	flag.CommandLine.Parse(args)

	if err := run(flag.Args()); err != nil {
		printErrorChain(err)
		os.Exit(1)
	}
}

func envArgs() []string {
	v := os.Getenv("JOINBENCH_ARGS")
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

func run(positional []string) error {
	if len(positional) < 1 {
		flag.Usage()
		return fmt.Errorf("missing input file")
	}
	path := positional[0]
	relations := positional[1:]

	if *listRelationsFlag || len(showTableFlags) > 0 || *showChunksFlag {
		return runInspect(path, relations)
	}

	mode, err := selectMode()
	if err != nil {
		return err
	}

	result, err := driver.Run(driver.Request{
		Path:      path,
		Relations: relations,
		Mode:      mode,
		Improved:  *improvedFlag,
		Jobs:      *jobsFlag,
	})
	if err != nil {
		return err
	}
	defer result.Buf.Close()

	if *printFlag {
		header := make([]string, len(result.Relations)+1)
		header[0] = "subject"
		for i, name := range result.Relations {
			header[i+1] = name
		}
		render.Table(os.Stdout, result.Buf, header, result.Rows, *printCountFlag)
	}
	return nil
}

func selectMode() (driver.Mode, error) {
	switch {
	case *hashFlag && *sortFlag:
		return 0, fmt.Errorf("exactly one of -hash or -sort must be set, not both")
	case *hashFlag:
		return driver.Hash, nil
	case *sortFlag:
		return driver.SortMerge, nil
	default:
		return 0, fmt.Errorf("exactly one of -hash or -sort must be set")
	}
}

// runInspect handles the informational flags that bypass the join engine
// entirely: -list-relations, -show-table, -show-chunks.
func runInspect(path string, relations []string) error {
	buf, err := input.Open(path)
	if err != nil {
		return err
	}
	defer buf.Close()

	if *listRelationsFlag {
		names, err := catalogue.Properties(buf)
		if err != nil {
			return err
		}
		render.Properties(os.Stdout, names)
	}

	if len(showTableFlags) > 0 {
		wanted := make(map[string]bool, len(showTableFlags))
		for _, n := range showTableFlags {
			wanted[n] = true
		}
		universe, err := catalogue.Build(buf, wanted)
		if err != nil {
			return err
		}
		for _, name := range showTableFlags {
			rel, ok := universe.Get(name)
			if !ok {
				return fmt.Errorf("unknown relation: %s", name)
			}
			render.Relation(os.Stdout, name, rel, *printCountFlag)
		}
	}

	if *showChunksFlag {
		count := *jobsFlag
		if count == 0 {
			count = runtime.NumCPU()
		}
		iters := buf.DivideChunks(count, *chunkSizeFlag)
		infos := make([]render.ChunkInfo, len(iters))
		for i, it := range iters {
			lines, size := 0, 0
			var covered []byte
			for {
				ln, ok := it.Next()
				if !ok {
					break
				}
				lines++
				size += len(ln.Data)
				if *debugFlag {
					covered = append(covered, ln.Data...)
				}
			}
			infos[i] = render.ChunkInfo{Index: i, Bytes: size, Lines: lines}
			if *debugFlag {
				infos[i].Checksum = render.Checksum(covered)
				infos[i].HasDigest = true
			}
		}
		render.Chunks(os.Stdout, infos)
	}
	return nil
}

// printErrorChain prints err and every wrapped cause as "Error: ..."
// followed by one "Caused by: ..." line per underlying cause.
func printErrorChain(err error) {
	colour := render.ColourEnabled()
	fmt.Fprintln(os.Stderr, render.Colourf(colour, "Error: %v", err))
	for cause := unwrap(err); cause != nil; cause = unwrap(cause) {
		fmt.Fprintln(os.Stderr, textutil.Indent(cause.Error(), "Caused by: "))
	}
}

type causer interface {
	Cause() error
}

type unwrapper interface {
	Unwrap() error
}

func unwrap(err error) error {
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

package hypercube

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ResultSink consumes the results of a run, one per input record in input order
type ResultSink interface {
	WriteResults(results []FlowResult) error
}

// TextResultSink writes each result as one line of five integers:
// source, destination, size, start tick and completion tick
type TextResultSink struct {
	w io.Writer
}

// NewTextResultSink is a constructor
func NewTextResultSink(w io.Writer) *TextResultSink {
	return &TextResultSink{w: w}
}

func (ts *TextResultSink) WriteResults(results []FlowResult) error {
	bw := bufio.NewWriter(ts.w)
	for _, res := range results {
		_, err := fmt.Fprintf(bw, "%d %d %d %d %d\n",
			res.Src, res.Dst, res.Size, res.Start, res.Completion)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteResultsFile writes results in the text form to the named file, replacing it
func WriteResultsFile(filename string, results []FlowResult) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := NewTextResultSink(f).WriteResults(results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

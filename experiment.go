package hypercube

// experiment.go has code that assembles and runs a complete experiment: it reads
// an experiment description, builds the cube and its router, loads the flows,
// simulates them, and hands the results to the configured sinks.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ExperimentDesc describes one experiment.  File names that are not absolute are
// taken relative to the directory holding the description.
type ExperimentDesc struct {
	// Name identifies the experiment in traces and in the results database
	Name string `json:"name" yaml:"name"`

	// Dimension is the degree d of the hypercube
	Dimension int `json:"dimension" yaml:"dimension"`

	// LinkBandwidth is the capacity of every link, in flow size units per tick
	LinkBandwidth float64 `json:"linkbandwidth" yaml:"linkbandwidth"`

	// FlowFile holds the flow records, as text, yaml or json
	FlowFile string `json:"flowfile" yaml:"flowfile"`

	// ResultsFile, if given, receives the text form of the results
	ResultsFile string `json:"resultsfile,omitempty" yaml:"resultsfile,omitempty"`

	// ResultsDB, if given, is an SQLite database the results are added to
	ResultsDB string `json:"resultsdb,omitempty" yaml:"resultsdb,omitempty"`

	// TraceFile, if given, receives the yaml or json trace of the run
	TraceFile string `json:"tracefile,omitempty" yaml:"tracefile,omitempty"`

	// MaxTicks bounds the run, zero means unbounded
	MaxTicks int `json:"maxticks,omitempty" yaml:"maxticks,omitempty"`

	// LogLevel is a zerolog level name used by the command line front end
	LogLevel string `json:"loglevel,omitempty" yaml:"loglevel,omitempty"`
}

// CreateExperimentDesc is an initialization constructor
func CreateExperimentDesc(name string, dimension int, linkBandwidth float64, flowFile string) *ExperimentDesc {
	xd := new(ExperimentDesc)
	xd.Name = name
	xd.Dimension = dimension
	xd.LinkBandwidth = linkBandwidth
	xd.FlowFile = flowFile
	return xd
}

// WriteToFile stores the ExperimentDesc struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (xd *ExperimentDesc) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*xd)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*xd, "", "\t")
	default:
		return fmt.Errorf("experiment file %s: extension must be .yaml, .yml or .json", filename)
	}
	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// ReadExperimentDesc deserializes a byte slice holding a representation of an ExperimentDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadExperimentDesc(filename string, useYAML bool, dict []byte) (*ExperimentDesc, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := ExperimentDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}

	return &example, nil
}

// LoadExperimentDesc reads the description in filename, choosing yaml or json from its
// extension, and resolves the relative file names it holds against its directory
func LoadExperimentDesc(filename string) (*ExperimentDesc, error) {
	xd, err := ReadExperimentDesc(filename, isYAMLExt(path.Ext(filename)), nil)
	if err != nil {
		return nil, fmt.Errorf("reading experiment %s: %w", filename, err)
	}

	dir := filepath.Dir(filename)
	for _, name := range []*string{&xd.FlowFile, &xd.ResultsFile, &xd.ResultsDB, &xd.TraceFile} {
		if *name != "" && !filepath.IsAbs(*name) {
			*name = filepath.Join(dir, *name)
		}
	}
	return xd, nil
}

// Validate checks the parameters that do not depend on the flow records
func (xd *ExperimentDesc) Validate() error {
	var errs []error
	if xd.Dimension < 0 || xd.Dimension > MaxDimension {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidDimension, xd.Dimension))
	}
	if err := checkBandwidth(xd.LinkBandwidth); err != nil {
		errs = append(errs, err)
	}
	if xd.FlowFile == "" {
		errs = append(errs, errors.New("experiment names no flow file"))
	}
	if xd.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max ticks must not be negative, got %d", xd.MaxTicks))
	}
	return errors.Join(errs...)
}

// ExperimentOutcome is what RunExperiment produced
type ExperimentOutcome struct {
	RunID    string
	Results  []FlowResult
	Makespan int

	// TraceWritten reports whether a trace file was produced
	TraceWritten bool
}

// RunExperiment builds and runs the experiment xd describes, writing its results to
// every sink the description names and to any extra sinks given.
func RunExperiment(ctx context.Context, xd *ExperimentDesc, logger zerolog.Logger,
	sinks ...ResultSink) (*ExperimentOutcome, error) {

	if err := xd.Validate(); err != nil {
		return nil, err
	}

	cube, err := NewHypercube(xd.Dimension)
	if err != nil {
		return nil, err
	}

	flows, err := LoadFlows(xd.FlowFile)
	if err != nil {
		return nil, err
	}

	runID := xid.New().String()
	logger = logger.With().Str("experiment", xd.Name).Str("run", runID).Logger()

	trace := CreateTraceManager(xd.Name, xd.TraceFile != "")
	trace.RunID = runID

	sim, err := NewFlowSimulator(NewRouter(cube), xd.LinkBandwidth,
		WithLogger(logger), WithTrace(trace), WithMaxTicks(xd.MaxTicks))
	if err != nil {
		return nil, err
	}

	logger.Info().Int("dimension", xd.Dimension).Int("flows", len(flows)).Msg("starting simulation")

	results, err := sim.Run(ctx, flows)
	if err != nil {
		return nil, err
	}

	outcome := &ExperimentOutcome{RunID: runID, Results: results, Makespan: Makespan(results)}

	if xd.ResultsFile != "" {
		if err := WriteResultsFile(xd.ResultsFile, results); err != nil {
			return nil, fmt.Errorf("writing results to %s: %w", xd.ResultsFile, err)
		}
	}

	if xd.ResultsDB != "" {
		dbSink, err := NewSQLiteResultSink(xd.ResultsDB, xd.Name)
		if err != nil {
			return nil, err
		}
		werr := dbSink.WriteResults(results)
		cerr := dbSink.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return nil, fmt.Errorf("recording results in %s: %w", xd.ResultsDB, err)
		}
	}

	for _, sink := range sinks {
		if err := sink.WriteResults(results); err != nil {
			return nil, err
		}
	}

	if xd.TraceFile != "" {
		outcome.TraceWritten, err = trace.WriteToFile(xd.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("writing trace to %s: %w", xd.TraceFile, err)
		}
	}

	logger.Info().Int("makespan", outcome.Makespan).Msg("experiment finished")
	return outcome, nil
}

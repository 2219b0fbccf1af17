package hypercube

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/iti/rngstream"
	"gopkg.in/yaml.v3"
)

// Flow is one transfer request: Size units from Src to Dst, entering the network
// at tick Start.  Size is in the same unit that the link bandwidth is expressed in per tick.
type Flow struct {
	Src   Node `json:"src" yaml:"src"`
	Dst   Node `json:"dst" yaml:"dst"`
	Size  int  `json:"size" yaml:"size"`
	Start int  `json:"start" yaml:"start"`
}

func (f Flow) String() string {
	return fmt.Sprintf("%d->%d size %d start %d", f.Src, f.Dst, f.Size, f.Start)
}

// validate checks one record against the cube it is to be simulated on
func (f Flow) validate(idx int, cube *Hypercube) error {
	reason := ""
	switch {
	case !cube.ValidNode(f.Src):
		reason = fmt.Sprintf("source %d not in [0,%d)", f.Src, cube.NodeCount())
	case !cube.ValidNode(f.Dst):
		reason = fmt.Sprintf("destination %d not in [0,%d)", f.Dst, cube.NodeCount())
	case f.Size <= 0:
		reason = "size must be positive"
	case f.Start < 0:
		reason = "start tick must not be negative"
	default:
		return nil
	}
	return &InvalidFlowRecordError{Index: idx, Flow: f, Reason: reason}
}

// ValidateFlows checks every record and reports all failures together.
// A nil return means the whole list can be simulated.
func ValidateFlows(cube *Hypercube, flows []Flow) error {
	var errs []error
	for idx, f := range flows {
		if err := f.validate(idx, cube); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// A FlowList is a named, serializable list of flow records
type FlowList struct {
	ListName string `json:"listname" yaml:"listname"`
	Flows    []Flow `json:"flows" yaml:"flows"`
}

// CreateFlowList is an initialization constructor
func CreateFlowList(listname string) *FlowList {
	fl := new(FlowList)
	fl.ListName = listname
	fl.Flows = make([]Flow, 0)
	return fl
}

// AddFlow appends a record to the list
func (fl *FlowList) AddFlow(src, dst Node, size, start int) {
	fl.Flows = append(fl.Flows, Flow{Src: src, Dst: dst, Size: size, Start: start})
}

func isYAMLExt(ext string) bool {
	return ext == ".yaml" || ext == ".YAML" || ext == ".yml"
}

func isJSONExt(ext string) bool {
	return ext == ".json" || ext == ".JSON"
}

// WriteToFile stores the FlowList to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name;
// any other extension gets the line-oriented text form read by ReadFlows.
func (fl *FlowList) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*fl)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*fl, "", "\t")
	default:
		var sb strings.Builder
		merr = WriteFlows(&sb, fl.Flows)
		bytes = []byte(sb.String())
	}
	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// ReadFlowList deserializes a byte slice holding a representation of a FlowList struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadFlowList(filename string, useYAML bool, dict []byte) (*FlowList, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := FlowList{}
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

// LoadFlows reads flow records from a file, picking the yaml or json FlowList
// form from the extension and the text form otherwise
func LoadFlows(filename string) ([]Flow, error) {
	pathExt := path.Ext(filename)
	if isYAMLExt(pathExt) || isJSONExt(pathExt) {
		fl, err := ReadFlowList(filename, isYAMLExt(pathExt), nil)
		if err != nil {
			return nil, fmt.Errorf("reading flow list %s: %w", filename, err)
		}
		return fl.Flows, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFlows(f)
}

// ReadFlows parses the text form of a flow list: one record per line holding
// source, destination, size and start tick as integers, separated by whitespace
// or commas.  Blank lines and everything after a '#' are ignored.
func ReadFlows(r io.Reader) ([]Flow, error) {
	flows := make([]Flow, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo += 1
		line := scanner.Text()
		if cut := strings.IndexByte(line, '#'); cut >= 0 {
			line = line[:cut]
		}
		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d: want 4 fields (src dst size start), got %d",
				ErrInvalidFlowRecord, lineNo, len(fields))
		}

		var vals [4]int
		for i, field := range fields {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: field %d %q is not an integer",
					ErrInvalidFlowRecord, lineNo, i+1, field)
			}
			vals[i] = v
		}
		flows = append(flows, Flow{Src: Node(vals[0]), Dst: Node(vals[1]), Size: vals[2], Start: vals[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return flows, nil
}

// WriteFlows writes the text form of a flow list, one record per line
func WriteFlows(w io.Writer, flows []Flow) error {
	for _, f := range flows {
		if _, err := fmt.Fprintf(w, "%d %d %d %d\n", f.Src, f.Dst, f.Size, f.Start); err != nil {
			return err
		}
	}
	return nil
}

// U01Source supplies uniform samples from [0,1).  *rngstream.RngStream is one.
type U01Source interface {
	RandU01() float64
}

// NewRandomSource creates a named random number stream and advances it by skip
// draws.  Streams are handed out in sequence from a fixed package seed, so a program
// that creates its streams in the same order sees the same samples on every run;
// skip selects a different stretch of the stream.
func NewRandomSource(name string, skip int) *rngstream.RngStream {
	rngstrm := rngstream.New(name)
	for i := 0; i < skip; i++ {
		rngstrm.RandU01()
	}
	return rngstrm
}

// RandPerm returns a uniformly shuffled copy of items, drawing from rng.
// items itself is left in place.
func RandPerm[T any](items []T, rng U01Source) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(rng.RandU01() * float64(i+1))
		if j > i {
			j = i
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// PermutationTraffic builds the random permutation traffic pattern: node i
// sends size units to perm(i), every flow starting at tick start
func PermutationTraffic(cube *Hypercube, rng U01Source, size, start int) []Flow {
	nodes := make([]Node, cube.NodeCount())
	for i := range nodes {
		nodes[i] = Node(i)
	}
	perm := RandPerm(nodes, rng)

	flows := make([]Flow, 0, len(nodes))
	for i, dst := range perm {
		flows = append(flows, Flow{Src: nodes[i], Dst: dst, Size: size, Start: start})
	}
	return flows
}

package hypercube

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

// TraceInst is one serialized trace record, stamped with the simulation time it describes
type TraceInst struct {
	TraceTime string `json:"tracetime" yaml:"tracetime"`
	TraceType string `json:"tracetype" yaml:"tracetype"`
	TraceStr  string `json:"tracestr" yaml:"tracestr"`
}

// TraceManager gathers information about one simulation run.  It is created
// active or inactive; the simulator calls its methods unconditionally and an
// inactive manager simply discards what it is given.
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// identifier of the run the traces belong to
	RunID string `json:"runid" yaml:"runid"`

	// text description of each traced flow, by input position
	NameByID map[int]string `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, by input position of the flow
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[int]string)
	tm.Traces = make(map[int][]TraceInst)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm != nil && tm.InUse
}

// AddTrace stores a trace record for the flow at input position flowIdx
func (tm *TraceManager) AddTrace(vrt vrtime.Time, flowIdx int, trace TraceInst) {
	if !tm.Active() {
		return
	}
	tm.Traces[flowIdx] = append(tm.Traces[flowIdx], trace)
}

// AddName records the description of the flow at input position flowIdx
func (tm *TraceManager) AddName(flowIdx int, desc string) error {
	if !tm.Active() {
		return nil
	}
	if _, present := tm.NameByID[flowIdx]; present {
		return fmt.Errorf("duplicated flow index %d in trace names", flowIdx)
	}
	tm.NameByID[flowIdx] = desc
	return nil
}

// WriteToFile stores the trace to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
// An inactive manager writes nothing and reports false.
func (tm *TraceManager) WriteToFile(filename string) (bool, error) {
	if !tm.Active() {
		return false, nil
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*tm)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*tm, "", "\t")
	default:
		return false, fmt.Errorf("trace file %s: extension must be .yaml, .yml or .json", filename)
	}
	if merr != nil {
		return false, merr
	}

	if err := os.WriteFile(filename, bytes, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// FlowTrace records a change in the state of one flow during a run
type FlowTrace struct {
	Tick     int     `json:"tick" yaml:"tick"`
	FlowIdx  int     `json:"flowidx" yaml:"flowidx"`
	Op       string  `json:"op" yaml:"op"` // "admit", "rate", "complete"
	Path     string  `json:"path,omitempty" yaml:"path,omitempty"`
	Rate     float64 `json:"rate" yaml:"rate"`
	Progress float64 `json:"progress" yaml:"progress"`
}

// Serialize renders the record as yaml
func (ftr *FlowTrace) Serialize() (string, error) {
	bytes, merr := yaml.Marshal(*ftr)
	if merr != nil {
		return "", merr
	}
	return string(bytes[:]), nil
}

// AddFlowTrace creates a trace record from its calling arguments and stores it
func AddFlowTrace(tm *TraceManager, vrt vrtime.Time, ftr *FlowTrace) error {
	if !tm.Active() {
		return nil
	}
	ftrStr, err := ftr.Serialize()
	if err != nil {
		return err
	}
	traceTime := strconv.FormatFloat(vrt.Seconds(), 'f', -1, 64)

	trcInst := TraceInst{TraceTime: traceTime, TraceType: "flow", TraceStr: ftrStr}
	tm.AddTrace(vrt, ftr.FlowIdx, trcInst)
	return nil
}

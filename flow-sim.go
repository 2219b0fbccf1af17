package hypercube

// flow-sim.go holds the simulator that moves a set of flows through the hypercube
// tick by tick.  A flow enters at its start tick along its dimension-order route,
// shares bandwidth with every other active flow that crosses one of its links, and
// leaves once it has delivered its size.  Rates are recomputed only when the set of
// active flows changes.
//
// The clock is an event manager carrying one event per simulated tick.  While no flow
// is active the next event is scheduled directly at the next start tick; skipping
// idle ticks changes no result since nothing accrues on them.

import (
	"context"
	"fmt"
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/rs/zerolog"
)

// progressSlack is the relative shortfall in delivered units still accepted as
// completion, absorbing rounding in sums of fractional rates
const progressSlack = 1e-9

var rdigits uint = 15

// clockHorizon is the last simulated second the event manager runs to.  It stays
// well inside the int64 tick count vrtime converts seconds into.
const clockHorizon = float64(1 << 40)

// round computed simulation values to avoid non-sensical comparisons
// induced by rounding error
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FlowResult is an input record together with the tick at which it completed
type FlowResult struct {
	Flow       `yaml:",inline"`
	Completion int `json:"completion" yaml:"completion"`
}

// Makespan returns the latest completion tick among the results, 0 if there are none
func Makespan(results []FlowResult) int {
	last := 0
	for _, res := range results {
		if res.Completion > last {
			last = res.Completion
		}
	}
	return last
}

// activeFlow is a flow that has been admitted and not yet completed
type activeFlow struct {
	idx      int // input position
	flow     Flow
	path     Path
	progress float64
}

func (af *activeFlow) done() bool {
	size := float64(af.flow.Size)
	return af.progress >= size-progressSlack*size
}

// FlowSimulator runs flows through a hypercube until all of them complete.
// An instance runs one simulation at a time; independent runs that are to
// proceed in parallel each need their own instance.
type FlowSimulator struct {
	router        *Router
	linkBandwidth float64
	tickDuration  float64
	maxTicks      int
	logger        zerolog.Logger
	trace         *TraceManager

	// state of the run in progress
	ctx        context.Context
	pending    *pendingQueue
	active     []*activeFlow
	rates      []float64 // aligned with active, valid while changed is false
	changed    bool
	completion []int
	remaining  int
	err        error
}

// SimOption adjusts a FlowSimulator at construction
type SimOption func(*FlowSimulator)

// WithLogger sets the logger that receives admission, completion and run summary events
func WithLogger(logger zerolog.Logger) SimOption {
	return func(sim *FlowSimulator) {
		sim.logger = logger
	}
}

// WithTrace attaches a trace manager that records every admission, rate change and completion.
// A trace manager holds a single run; give each run its own.
func WithTrace(tm *TraceManager) SimOption {
	return func(sim *FlowSimulator) {
		sim.trace = tm
	}
}

// WithMaxTicks bounds the run; a run still unfinished when the clock reaches
// maxTicks is aborted.  Zero or less means no bound.
func WithMaxTicks(maxTicks int) SimOption {
	return func(sim *FlowSimulator) {
		sim.maxTicks = maxTicks
	}
}

// WithTickDuration sets the length of one tick in the time unit of the link bandwidth.
// The default is 1.
func WithTickDuration(d float64) SimOption {
	return func(sim *FlowSimulator) {
		sim.tickDuration = d
	}
}

// NewFlowSimulator is a constructor.  linkBandwidth is the capacity of every
// link, in size units per unit time.
func NewFlowSimulator(router *Router, linkBandwidth float64, opts ...SimOption) (*FlowSimulator, error) {
	if err := checkBandwidth(linkBandwidth); err != nil {
		return nil, err
	}
	sim := new(FlowSimulator)
	sim.router = router
	sim.linkBandwidth = linkBandwidth
	sim.tickDuration = 1.0
	sim.logger = zerolog.Nop()
	for _, opt := range opts {
		opt(sim)
	}
	if !(sim.tickDuration > 0) || math.IsInf(sim.tickDuration, 1) {
		return nil, fmt.Errorf("tick duration must be positive and finite, got %v", sim.tickDuration)
	}
	return sim, nil
}

// Run simulates flows to completion and returns, in input order, each flow with its
// completion tick.  Every record is validated first; if any is invalid nothing is
// simulated and the returned error joins one InvalidFlowRecordError per bad record.
// Cancelling ctx or exhausting the tick budget aborts the run between ticks with an
// error wrapping ErrRunAborted.
func (sim *FlowSimulator) Run(ctx context.Context, flows []Flow) ([]FlowResult, error) {
	if err := ValidateFlows(sim.router.Cube(), flows); err != nil {
		return nil, err
	}

	sim.ctx = ctx
	sim.pending = createPendingQueue(flows)
	sim.active = make([]*activeFlow, 0)
	sim.rates = nil
	sim.changed = false
	sim.completion = make([]int, len(flows))
	sim.remaining = len(flows)
	sim.err = nil

	for idx, f := range flows {
		if err := sim.trace.AddName(idx, f.String()); err != nil {
			return nil, err
		}
	}

	if first, ok := sim.pending.nextStart(); ok {
		if sim.maxTicks > 0 && first >= sim.maxTicks {
			return nil, fmt.Errorf("%w: tick budget %d ends before the first start tick %d",
				ErrRunAborted, sim.maxTicks, first)
		}
		evtMgr := evtm.New()
		evtMgr.Schedule(sim, first, advanceTick, vrtime.SecondsToTime(float64(first)))
		evtMgr.Run(clockHorizon)
	}

	if sim.err != nil {
		return nil, sim.err
	}
	if sim.remaining > 0 {
		return nil, fmt.Errorf("%w: clock horizon %.0f reached with %d flows unfinished",
			ErrRunAborted, clockHorizon, sim.remaining)
	}

	results := make([]FlowResult, len(flows))
	for idx, f := range flows {
		results[idx] = FlowResult{Flow: f, Completion: sim.completion[idx]}
	}

	sim.logger.Info().
		Int("flows", len(flows)).
		Int("makespan", Makespan(results)).
		Float64("bandwidth", sim.linkBandwidth).
		Msg("simulation complete")

	return results, nil
}

// advanceTick is the event handler that carries the simulation through one tick
// and schedules the next.  The context is the simulator, the data the tick number.
func advanceTick(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*FlowSimulator)
	tick := data.(int)

	if err := sim.ctx.Err(); err != nil {
		sim.err = fmt.Errorf("%w at tick %d: %w", ErrRunAborted, tick, err)
		return nil
	}

	if err := sim.step(tick, evtMgr.CurrentTime()); err != nil {
		sim.err = err
		return nil
	}

	// everything has been delivered
	if sim.remaining == 0 {
		return nil
	}

	next := tick + 1
	if len(sim.active) == 0 {
		if start, ok := sim.pending.nextStart(); ok {
			next = start
		}
	}

	if sim.maxTicks > 0 && next >= sim.maxTicks {
		sim.err = fmt.Errorf("%w: tick budget %d reached with %d flows unfinished",
			ErrRunAborted, sim.maxTicks, sim.remaining)
		return nil
	}

	evtMgr.Schedule(sim, next, advanceTick, vrtime.SecondsToTime(float64(next-tick)))
	return nil
}

// step performs admission, rate recomputation, progress accrual and completion for one tick
func (sim *FlowSimulator) step(tick int, vrt vrtime.Time) error {
	// admit every flow whose start tick has arrived, in input order
	for _, pf := range sim.pending.release(tick) {
		route, err := sim.router.ShortestPath(pf.flow.Src, pf.flow.Dst)
		if err != nil {
			return fmt.Errorf("routing flow %d: %w", pf.idx, err)
		}
		sim.active = append(sim.active, &activeFlow{idx: pf.idx, flow: pf.flow, path: route})
		sim.changed = true

		sim.logger.Debug().Int("tick", tick).Int("flow", pf.idx).
			Str("path", route.String()).Msg("flow admitted")
		if err := AddFlowTrace(sim.trace, vrt,
			&FlowTrace{Tick: tick, FlowIdx: pf.idx, Op: "admit", Path: route.String()}); err != nil {
			return err
		}
	}

	if sim.changed {
		if err := sim.recomputeRates(tick, vrt); err != nil {
			return err
		}
	}

	for i, af := range sim.active {
		af.progress += sim.rates[i] * sim.tickDuration
	}

	// retire what has been delivered; the survivors keep their relative order
	kept := sim.active[:0]
	for _, af := range sim.active {
		if !af.done() {
			kept = append(kept, af)
			continue
		}
		sim.completion[af.idx] = tick + 1
		sim.remaining -= 1

		sim.logger.Debug().Int("tick", tick+1).Int("flow", af.idx).Msg("flow completed")
		if err := AddFlowTrace(sim.trace, vrt, &FlowTrace{Tick: tick + 1, FlowIdx: af.idx, Op: "complete",
			Progress: roundFloat(af.progress, rdigits)}); err != nil {
			return err
		}
	}
	if len(kept) != len(sim.active) {
		// clear the tail so retired flows are not held by the backing array
		for i := len(kept); i < len(sim.active); i++ {
			sim.active[i] = nil
		}
		sim.active = kept
		sim.rates = nil
		sim.changed = true
	}
	return nil
}

// recomputeRates refreshes the cached rate of every active flow from the full set of active paths
func (sim *FlowSimulator) recomputeRates(tick int, vrt vrtime.Time) error {
	paths := make([]Path, len(sim.active))
	for i, af := range sim.active {
		paths[i] = af.path
	}
	rates, err := EstimateRates(paths, sim.linkBandwidth)
	if err != nil {
		return err
	}

	for i, af := range sim.active {
		if !(rates[i] > 0) {
			return fmt.Errorf("%w: flow %d at tick %d", ErrNonTerminatingRun, af.idx, tick)
		}
		if err := AddFlowTrace(sim.trace, vrt, &FlowTrace{Tick: tick, FlowIdx: af.idx, Op: "rate",
			Rate: roundFloat(rates[i], rdigits), Progress: roundFloat(af.progress, rdigits)}); err != nil {
			return err
		}
	}

	sim.rates = rates
	sim.changed = false
	return nil
}

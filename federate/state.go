// Package federate implements FederateState: the per-federate runtime
// core of a co-simulation. It owns a federate's lifecycle, its
// interface registries (subscriptions, publications, endpoints,
// filters), and the single-consumer loop that drains incoming
// ActionMessages and advances federate time. It is grounded on
// helics::FederateState from
// original_source/src/helics/core/FederateState.cpp, adapted to Go's
// concurrency primitives per SPEC_FULL.md.
package federate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/corinnegroth/federate-core/action"
	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/handle"
	"github.com/corinnegroth/federate-core/input"
	"github.com/corinnegroth/federate-core/output"
	"github.com/corinnegroth/federate-core/timecoord"
)

// Phase is a federate's coarse lifecycle stage. Transitions are
// monotonic except for the explicit Reset path: Created ->
// Initializing -> Executing -> Terminating -> Finished, with ErrorState
// reachable from any stage. setPhase enters Initializing only from
// Created and Executing only from Initializing, ignoring any other
// attempt.
type Phase int32

const (
	Created Phase = iota
	Initializing
	Executing
	Terminating
	Finished
	ErrorState
)

var phaseNames = map[Phase]string{
	Created:      "created",
	Initializing: "initializing",
	Executing:    "executing",
	Terminating:  "terminating",
	Finished:     "finished",
	ErrorState:   "error",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// ConvergenceState is the outcome of processing one ActionMessage,
// reported by processActionMessage and surfaced to callers draining the
// federate's run loop from tests or the command-line harness.
type ConvergenceState int

const (
	// ContinueProcessing means the message was applied and processing
	// should continue with the next message; it carries no iteration
	// outcome of its own.
	ContinueProcessing ConvergenceState = iota
	// Nonconverged means a negotiation (exec entry or time request) is
	// still waiting on a dependency.
	Nonconverged
	// Complete means a negotiation resolved.
	Complete
	// Halted means the federate received CmdStop/CmdDisconnect.
	Halted
	// ErrorConv means the federate received CmdError or a fatal fault.
	ErrorConv
)

var convergenceNames = map[ConvergenceState]string{
	ContinueProcessing: "continue",
	Nonconverged:       "nonconverged",
	Complete:           "complete",
	Halted:             "halted",
	ErrorConv:          "error",
}

func (c ConvergenceState) String() string {
	if name, ok := convergenceNames[c]; ok {
		return name
	}
	return "unknown"
}

// unsetID is the sentinel global federate ID before CmdFedAck assigns a
// real one.
const unsetID = -1

// spectatorPollInterval is how often a blocked spectator call (WaitSetup,
// EnterInitializingState, EnterExecutingState, RequestTime) re-checks
// its condition. This spin-wait is a deliberate, documented holdover
// from the reference implementation's spectator pattern: spectators
// never touch federate state directly, they only poll state the single
// worker goroutine (Run) has already published, so the cost is a short,
// bounded latency rather than a correctness risk.
const spectatorPollInterval = 20 * time.Millisecond

// State is a federate's runtime core. Exactly one goroutine should call
// Run; every other method is safe to call concurrently as a spectator.
type State struct {
	name string

	phase atomic.Int32
	id    atomic.Int32

	// processing is the single-worker mutation token: Run's dispatch of
	// one ActionMessage holds it for the duration of
	// processActionMessage, so a concurrent call that also tried to
	// drain the queue (there should never be one, but defending the
	// invariant costs nothing) would find it held and back off instead
	// of mutating state alongside the real worker.
	processing atomic.Bool

	queue  *action.Queue
	sender action.Sender
	coord  timecoord.Coordinator

	nextHandle atomic.Int32

	subscriptions *handle.Registry[input.Input]
	publications  *handle.Registry[output.Publication]
	endpoints     *handle.Registry[output.Endpoint]
	sourceFilters *handle.Registry[output.Filter]
	destFilters   *handle.Registry[output.Filter]

	mu           sync.Mutex
	dependents   []int32
	dependencies []int32

	log *logrus.Entry
}

// New returns a State for a federate named name, draining commands
// through queue, forwarding outbound coordination traffic through
// sender, and delegating time negotiation to coord.
func New(name string, queue *action.Queue, sender action.Sender, coord timecoord.Coordinator, log *logrus.Logger) *State {
	if log == nil {
		log = logrus.New()
	}
	var s = &State{
		name:          name,
		queue:         queue,
		sender:        sender,
		coord:         coord,
		subscriptions: handle.NewRegistry[input.Input](),
		publications:  handle.NewRegistry[output.Publication](),
		endpoints:     handle.NewRegistry[output.Endpoint](),
		sourceFilters: handle.NewRegistry[output.Filter](),
		destFilters:   handle.NewRegistry[output.Filter](),
		log:           log.WithField("federate", name),
	}
	s.id.Store(unsetID)
	return s
}

// Name returns the federate's registered name.
func (s *State) Name() string { return s.name }

// Phase returns the federate's current lifecycle stage.
func (s *State) Phase() Phase { return Phase(s.phase.Load()) }

func (s *State) setPhase(p Phase) {
	switch p {
	case Initializing:
		if !s.phase.CompareAndSwap(int32(Created), int32(p)) {
			return
		}
	case Executing:
		if !s.phase.CompareAndSwap(int32(Initializing), int32(p)) {
			return
		}
	default:
		s.phase.Store(int32(p))
	}
	s.log.WithField("phase", p).Debug("federate phase transition")
}

// ID returns the federate's global identifier, or unsetID before
// CmdFedAck has been processed.
func (s *State) ID() int32 { return s.id.Load() }

// Reset returns the federate to Created, clearing its assigned ID. It
// does not clear registered interfaces: re-entering initialization with
// the same subscriptions/publications/endpoints is the whole point of a
// reinitialization cycle.
func (s *State) Reset() {
	s.id.Store(unsetID)
	s.setPhase(Created)
}

// waitConverge polls resolved until it reports true, returning Complete,
// or until the federate's phase independently reports ErrorState
// (ErrorConv) or Terminating/Finished (Halted), or ctx is done
// (Nonconverged). This is how every spectator entry point surfaces the
// actual convergence outcome instead of a plain bool, per spec.md §4.4.
func (s *State) waitConverge(ctx context.Context, resolved func() bool) ConvergenceState {
	for {
		if resolved() {
			return Complete
		}
		switch s.Phase() {
		case ErrorState:
			return ErrorConv
		case Terminating, Finished:
			return Halted
		}
		select {
		case <-ctx.Done():
			return Nonconverged
		case <-time.After(spectatorPollInterval):
		}
	}
}

// WaitSetup blocks until the broker has assigned this federate a global
// ID via CmdFedAck, or ctx is done, or the federate enters ErrorState.
func (s *State) WaitSetup(ctx context.Context) ConvergenceState {
	return s.waitConverge(ctx, func() bool { return s.id.Load() != unsetID })
}

// EnterInitializingState requests transition into the initializing
// phase and blocks until it's granted.
func (s *State) EnterInitializingState(ctx context.Context) ConvergenceState {
	if s.Phase() == Initializing {
		return Complete
	}
	if s.Phase() == Created {
		s.queue.Push(action.Message{Action: action.CmdInitGrant, SourceID: s.ID(), DestID: s.ID()})
	}
	return s.waitConverge(ctx, func() bool { return s.Phase() == Initializing })
}

// EnterExecutingState requests transition into the executing phase,
// negotiating exec entry through the time coordinator, and blocks until
// every dependency has reported readiness.
func (s *State) EnterExecutingState(ctx context.Context) ConvergenceState {
	if s.Phase() == Executing {
		return Complete
	}
	s.queue.Push(action.Message{Action: action.CmdExecRequest, SourceID: s.ID()})
	return s.waitConverge(ctx, func() bool { return s.Phase() == Executing })
}

// RequestTime asks to advance to next; if iterate is true the request
// also counts as the next iteration of the current time step, and next
// is still the time requested. It blocks until the coordinator has
// granted at least next and returns the granted time alongside the outcome:
// Complete once granted, Nonconverged while still waiting on a
// dependency when ctx ends, Halted if the federation stopped first, or
// ErrorConv on a fault.
func (s *State) RequestTime(ctx context.Context, next ftime.Time, iterate bool) (ftime.Time, ConvergenceState) {
	s.queue.Push(action.Message{Action: action.CmdTimeRequest, SourceID: s.ID(), ActionTime: next, Iterate: iterate})
	var state = s.waitConverge(ctx, func() bool { return s.coord.CheckTimeGrant() && s.coord.GrantedTime() >= next })
	return s.coord.GrantedTime(), state
}

// Stop requests the federate halt, closing its queue once the command
// is processed.
func (s *State) Stop() {
	s.queue.Push(action.Message{Action: action.CmdStop, SourceID: s.ID()})
}

// Run drains the federate's queue until it closes, ctx is done, or a
// message leaves the federate Halted or in error, in
// the single worker goroutine a federate's owner must start exactly
// once. Every mutation to federate state happens inside this loop.
func (s *State) Run(ctx context.Context) {
	for {
		msg, ok := s.queue.Pop(ctx)
		if !ok {
			return
		}
		if !s.processing.CompareAndSwap(false, true) {
			s.log.Warn("processing token held during Run dispatch; federate invariant violated")
			continue
		}
		var state = s.processActionMessage(msg)
		s.processing.Store(false)
		if state == Halted || state == ErrorConv {
			return
		}
	}
}

// processActionMessage applies one ActionMessage to federate state and
// reports the resulting ConvergenceState. It must only ever be called
// by Run, which holds the processing token for its duration.
func (s *State) processActionMessage(msg action.Message) ConvergenceState {
	switch msg.Action {
	case action.CmdFedAck:
		if msg.Error {
			s.setPhase(ErrorState)
			return ErrorConv
		}
		s.id.Store(msg.DestID)
		s.coord.SetSourceID(msg.DestID)
		return ContinueProcessing

	case action.CmdInitGrant:
		s.setPhase(Initializing)
		return Complete

	case action.CmdExecRequest:
		return s.convergeIteration(s.coord.EnteringExecMode(), Executing)

	case action.CmdExecGrant, action.CmdExecCheck:
		return s.convergeIteration(s.coord.ProcessTimeMessage(msg), Executing)

	case action.CmdTimeRequest:
		s.coord.TimeRequest(msg.ActionTime, msg.Iterate)
		if s.coord.CheckTimeGrant() {
			return s.convergeIteration(timecoord.Complete, s.Phase())
		}
		return ContinueProcessing

	case action.CmdTimeGrant, action.CmdTimeCheck:
		return s.convergeIteration(s.coord.ProcessTimeMessage(msg), s.Phase())

	case action.CmdStop, action.CmdDisconnect:
		s.setPhase(Terminating)
		s.queue.Close()
		s.setPhase(Finished)
		return Halted

	case action.CmdError:
		s.setPhase(ErrorState)
		return ErrorConv

	case action.CmdPub:
		s.applyPub(msg)
		return ContinueProcessing

	case action.CmdSendMessage:
		s.applySendMessage(msg)
		return ContinueProcessing

	case action.CmdSendForFilter:
		s.applySendForFilter(msg)
		return ContinueProcessing

	case action.CmdRegPub, action.CmdNotifyPub:
		if in, ok := s.subscriptions.ByHandle(msg.DestHandle); ok {
			in.BindSource(handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle}, msg.Name, "", "")
		}
		return ContinueProcessing

	case action.CmdRegSub, action.CmdNotifySub:
		if pub, ok := s.publications.ByHandle(msg.DestHandle); ok {
			pub.AddSubscriber(handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle})
		}
		return ContinueProcessing

	case action.CmdRegDstFilter, action.CmdNotifyDstFilter:
		// dest_handle addresses the endpoint the filter intercepts, not a
		// filter handle (original_source/.../FederateState.cpp:889-906):
		// this federate now depends on the filter's owning federate
		// resolving its transform before this federate's traffic can flow.
		if _, ok := s.endpoints.ByHandle(msg.DestHandle); ok {
			s.addDependencyID(msg.SourceID)
			s.coord.AddDependency(msg.SourceID)
		}
		return ContinueProcessing

	case action.CmdRegSrcFilter, action.CmdNotifySrcFilter:
		// Same dest_handle-is-an-endpoint rule as CMD_REG_DST_FILTER, but a
		// source filter intercepts the endpoint's outgoing traffic, so the
		// endpoint is marked hasFilter and the filter's federate becomes a
		// dependent instead of a dependency.
		if ep, ok := s.endpoints.ByHandle(msg.DestHandle); ok {
			ep.SetHasFilter(true)
			s.addDependentID(msg.SourceID)
			s.coord.AddDependent(msg.SourceID)
		}
		return ContinueProcessing

	case action.CmdRegEnd, action.CmdNotifyEnd:
		s.bindFiltersToEndpoint(msg)
		return ContinueProcessing

	case action.CmdAddDependency:
		s.addDependencyID(msg.SourceID)
		s.coord.AddDependency(msg.SourceID)
		return ContinueProcessing

	case action.CmdAddDependent:
		s.addDependentID(msg.SourceID)
		s.coord.AddDependent(msg.SourceID)
		return ContinueProcessing

	case action.CmdRemoveDependency:
		s.removeDependencyID(msg.SourceID)
		s.coord.RemoveDependency(msg.SourceID)
		return ContinueProcessing

	case action.CmdRemoveDependent:
		s.removeDependentID(msg.SourceID)
		s.coord.RemoveDependent(msg.SourceID)
		return ContinueProcessing

	default:
		return ContinueProcessing
	}
}

// convergeIteration maps a timecoord.IterationState into the matching
// ConvergenceState, advancing the federate's phase to onComplete if the
// negotiation resolved.
func (s *State) convergeIteration(state timecoord.IterationState, onComplete Phase) ConvergenceState {
	switch state {
	case timecoord.Complete:
		s.setPhase(onComplete)
		s.revealInputs(s.coord.GrantedTime(), s.coord.CurrentIteration() > 0)
		return Complete
	case timecoord.Halted:
		s.setPhase(Terminating)
		s.setPhase(Finished)
		return Halted
	case timecoord.Error:
		s.setPhase(ErrorState)
		return ErrorConv
	default:
		return Nonconverged
	}
}

// revealInputs advances every registered subscription's visibility to
// grantTime, the federate's fillEventVector equivalent: it is the step
// that turns buffered-but-unrevealed CMD_PUB data into values
// GetEvents/GetDataPriority can actually observe, run once per exec or
// time grant. iterate selects UpdateTimeNextIteration (reprocessing the
// same time at the next iteration) over UpdateTimeInclusive (a genuine
// advance).
func (s *State) revealInputs(grantTime ftime.Time, iterate bool) {
	s.subscriptions.Each(func(in *input.Input) {
		if iterate {
			in.UpdateTimeNextIteration(grantTime)
		} else {
			in.UpdateTimeInclusive(grantTime)
		}
	})
}

func (s *State) applyPub(msg action.Message) {
	in, ok := s.subscriptions.ByHandle(msg.DestHandle)
	if !ok {
		return
	}
	var source = handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle}
	if !in.AcceptsSource(source) {
		return
	}
	var revealTime = msg.ActionTime + s.coord.GetFedInfo().ImpactWindow
	in.AddData(source, revealTime, msg.Iteration, msg.Payload)
	s.coord.UpdateValueTime(in.NextValueTime())
}

// applySendMessage delivers a CMD_SEND_MESSAGE directly addressed at an
// endpoint, adding this federate's ImpactWindow before the message
// becomes visible — the delay spec.md §4.5 requires for direct sends,
// and explicitly withholds from CMD_SEND_FOR_FILTER (applySendForFilter).
func (s *State) applySendMessage(msg action.Message) {
	ep, ok := s.endpoints.ByHandle(msg.DestHandle)
	if !ok {
		return
	}
	var revealTime = msg.ActionTime + s.coord.GetFedInfo().ImpactWindow
	ep.Deliver(output.Message{
		Source:      handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle},
		Destination: handle.GlobalHandle{FederateID: msg.DestID, Handle: msg.DestHandle},
		Time:        revealTime,
		Data:        msg.Payload,
	})
	s.coord.UpdateMessageTime(ep.FirstMessageTime())
}

// applySendForFilter delivers a CMD_SEND_FOR_FILTER message into the
// addressed filter's own mailbox (msg.DestHandle names a filter handle,
// not an endpoint), with no ImpactWindow applied: the filter chain's
// transform, not this federate's own impact delay, governs when the
// eventual destination endpoint sees the result.
func (s *State) applySendForFilter(msg action.Message) {
	var payload = output.Message{
		Source:      handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle},
		Destination: handle.GlobalHandle{FederateID: msg.DestID, Handle: msg.DestHandle},
		Time:        msg.ActionTime,
		Data:        msg.Payload,
	}
	if f, ok := s.sourceFilters.ByHandle(msg.DestHandle); ok {
		f.Deliver(payload)
		return
	}
	if f, ok := s.destFilters.ByHandle(msg.DestHandle); ok {
		f.Deliver(payload)
	}
}

// bindFiltersToEndpoint resolves CMD_REG_END/CMD_NOTIFY_END
// (original_source/.../FederateState.cpp:852-861): a remote endpoint
// named msg.Name has just registered. Any locally-registered filter
// declared against that name by TargetName is bound to its global
// handle, and the matching coordinator edge is added so time
// advancement waits on the right federate — a dependency for a
// destination filter (this federate's endpoint won't see traffic until
// the upstream federate resolves), a dependent for a source filter
// (the upstream federate now waits on this one).
func (s *State) bindFiltersToEndpoint(msg action.Message) {
	var target = handle.GlobalHandle{FederateID: msg.SourceID, Handle: msg.SourceHandle}
	s.destFilters.Each(func(f *output.Filter) {
		if f.TargetName() == msg.Name {
			f.BindTarget(target)
			s.addDependencyID(msg.SourceID)
			s.coord.AddDependency(msg.SourceID)
		}
	})
	s.sourceFilters.Each(func(f *output.Filter) {
		if f.TargetName() == msg.Name {
			f.BindTarget(target)
			s.addDependentID(msg.SourceID)
			s.coord.AddDependent(msg.SourceID)
		}
	})
}

func (s *State) addDependencyID(fed int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.dependencies {
		if existing == fed {
			return
		}
	}
	s.dependencies = append(s.dependencies, fed)
}

func (s *State) removeDependencyID(fed int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.dependencies {
		if existing == fed {
			s.dependencies = append(s.dependencies[:i], s.dependencies[i+1:]...)
			return
		}
	}
}

func (s *State) addDependentID(fed int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.dependents {
		if existing == fed {
			return
		}
	}
	s.dependents = append(s.dependents, fed)
}

func (s *State) removeDependentID(fed int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.dependents {
		if existing == fed {
			s.dependents = append(s.dependents[:i], s.dependents[i+1:]...)
			return
		}
	}
}

// Dependents returns the federate IDs currently depending on this
// federate's time advancement.
func (s *State) Dependents() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out = make([]int32, len(s.dependents))
	copy(out, s.dependents)
	return out
}

// Dependencies returns the federate IDs this federate's time
// advancement waits on.
func (s *State) Dependencies() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out = make([]int32, len(s.dependencies))
	copy(out, s.dependencies)
	return out
}

// nextHandleValue assigns densely increasing Handles across every
// interface kind, matching the reference implementation's single
// per-federate handle counter.
func (s *State) nextHandleValue() handle.Handle {
	return handle.Handle(s.nextHandle.Add(1) - 1)
}

// CreateSubscription registers a new input slot and returns it.
func (s *State) CreateSubscription(name, declType, declUnit string, required bool) (*input.Input, error) {
	var h = s.nextHandleValue()
	var in = input.New(h, name, declType, declUnit, required)
	if err := s.subscriptions.Insert(in); err != nil {
		return nil, errors.Wrapf(err, "create subscription %q", name)
	}
	return in, nil
}

// CreatePublication registers a new publication and returns it.
func (s *State) CreatePublication(name, pubType, units string) (*output.Publication, error) {
	var h = s.nextHandleValue()
	var pub = output.NewPublication(h, name, pubType, units)
	if err := s.publications.Insert(pub); err != nil {
		return nil, errors.Wrapf(err, "create publication %q", name)
	}
	return pub, nil
}

// CreateEndpoint registers a new endpoint and returns it.
func (s *State) CreateEndpoint(name, specType string) (*output.Endpoint, error) {
	var h = s.nextHandleValue()
	var ep = output.NewEndpoint(h, name, specType)
	if err := s.endpoints.Insert(ep); err != nil {
		return nil, errors.Wrapf(err, "create endpoint %q", name)
	}
	return ep, nil
}

// CreateSourceFilter registers a new source-side filter targeting the
// endpoint named targetName and returns it. The binding itself resolves
// later, when that endpoint registers (see bindFiltersToEndpoint).
func (s *State) CreateSourceFilter(name, operator, targetName string) (*output.Filter, error) {
	var h = s.nextHandleValue()
	var f = output.NewFilter(h, name, output.FilterSource, operator, targetName)
	if err := s.sourceFilters.Insert(f); err != nil {
		return nil, errors.Wrapf(err, "create source filter %q", name)
	}
	return f, nil
}

// CreateDestFilter registers a new destination-side filter targeting
// the endpoint named targetName and returns it.
func (s *State) CreateDestFilter(name, operator, targetName string) (*output.Filter, error) {
	var h = s.nextHandleValue()
	var f = output.NewFilter(h, name, output.FilterDest, operator, targetName)
	if err := s.destFilters.Insert(f); err != nil {
		return nil, errors.Wrapf(err, "create dest filter %q", name)
	}
	return f, nil
}

// Subscription looks up a registered input by name.
func (s *State) Subscription(name string) (*input.Input, bool) { return s.subscriptions.ByName(name) }

// Publication looks up a registered publication by name.
func (s *State) Publication(name string) (*output.Publication, bool) {
	return s.publications.ByName(name)
}

// Endpoint looks up a registered endpoint by name.
func (s *State) Endpoint(name string) (*output.Endpoint, bool) { return s.endpoints.ByName(name) }

// Publish sends a value to every recorded subscriber of pub as of
// valueTime, via the federate's outbound Sender.
func (s *State) Publish(pub *output.Publication, valueTime ftime.Time, payload []byte) {
	var srcHandle = pub.ID()
	for _, sub := range pub.Subscribers() {
		s.sender.Send(action.Message{
			Action:       action.CmdPub,
			SourceID:     s.ID(),
			SourceHandle: srcHandle,
			DestID:       sub.FederateID,
			DestHandle:   sub.Handle,
			ActionTime:   valueTime,
			Payload:      payload,
		})
	}
}

// SendMessage delivers payload from source endpoint to a specific
// destination GlobalHandle via the federate's outbound Sender.
func (s *State) SendMessage(source *output.Endpoint, dest handle.GlobalHandle, sendTime ftime.Time, payload []byte) {
	s.sender.Send(action.Message{
		Action:       action.CmdSendMessage,
		SourceID:     s.ID(),
		SourceHandle: source.ID(),
		DestID:       dest.FederateID,
		DestHandle:   dest.Handle,
		ActionTime:   sendTime,
		Payload:      payload,
	})
}

// GetEvents returns the names of every registered input with a value
// ready to be read at or before asOf, and every endpoint with a message
// ready to be read at or before asOf.
func (s *State) GetEvents(asOf ftime.Time) (inputs []string, endpoints []string) {
	s.subscriptions.Each(func(in *input.Input) {
		if in.NextValueTime() <= asOf {
			inputs = append(inputs, in.Name())
		}
	})
	s.endpoints.Each(func(ep *output.Endpoint) {
		if ep.FirstMessageTime() <= asOf {
			endpoints = append(endpoints, ep.Name())
		}
	})
	return inputs, endpoints
}

// NextValueTime returns the minimum NextValueTime across every
// registered input.
func (s *State) NextValueTime() ftime.Time {
	var next = ftime.MaxVal
	s.subscriptions.Each(func(in *input.Input) {
		if t := in.NextValueTime(); t < next {
			next = t
		}
	})
	return next
}

// NextMessageTime returns the minimum FirstMessageTime across every
// registered endpoint.
func (s *State) NextMessageTime() ftime.Time {
	var next = ftime.MaxVal
	s.endpoints.Each(func(ep *output.Endpoint) {
		if t := ep.FirstMessageTime(); t < next {
			next = t
		}
	})
	return next
}

// Receive pops the earliest message pending on the endpoint identified
// by h, ready as of grantTime. ok is false if h isn't a registered
// endpoint or nothing is ready yet.
func (s *State) Receive(h handle.Handle, grantTime ftime.Time) (output.Message, bool) {
	ep, ok := s.endpoints.ByHandle(h)
	if !ok {
		return output.Message{}, false
	}
	return ep.GetMessage(grantTime)
}

// ReceiveAny pops the earliest ready message across every registered
// endpoint, reporting the handle it was received on.
func (s *State) ReceiveAny(grantTime ftime.Time) (output.Message, handle.Handle, bool) {
	var earliestHandle handle.Handle
	var earliest = ftime.MaxVal
	var found bool
	s.endpoints.Each(func(ep *output.Endpoint) {
		if t := ep.FirstMessageTime(); t <= grantTime && t < earliest {
			earliest = t
			earliestHandle = ep.ID()
			found = true
		}
	})
	if !found {
		return output.Message{}, handle.Invalid, false
	}
	ep, _ := s.endpoints.ByHandle(earliestHandle)
	msg, ok := ep.GetMessage(grantTime)
	return msg, earliestHandle, ok
}

// ReceiveAnyFilter pops the earliest ready message across every
// registered source and destination filter mailbox, reporting the
// handle it was received on, for a federate implementing a filter
// operator's CMD_SEND_FOR_FILTER round trip.
func (s *State) ReceiveAnyFilter(grantTime ftime.Time) (output.Message, handle.Handle, bool) {
	var earliestHandle handle.Handle
	var earliest = ftime.MaxVal
	var found bool
	s.sourceFilters.Each(func(f *output.Filter) {
		if t := f.FirstMessageTime(); t <= grantTime && t < earliest {
			earliest = t
			earliestHandle = f.ID()
			found = true
		}
	})
	s.destFilters.Each(func(f *output.Filter) {
		if t := f.FirstMessageTime(); t <= grantTime && t < earliest {
			earliest = t
			earliestHandle = f.ID()
			found = true
		}
	})
	if !found {
		return output.Message{}, handle.Invalid, false
	}
	if f, ok := s.sourceFilters.ByHandle(earliestHandle); ok {
		msg, ok2 := f.GetMessage(grantTime)
		return msg, earliestHandle, ok2
	}
	if f, ok := s.destFilters.ByHandle(earliestHandle); ok {
		msg, ok2 := f.GetMessage(grantTime)
		return msg, earliestHandle, ok2
	}
	return output.Message{}, handle.Invalid, false
}

// GetQueueSize reports how many messages are pending on the endpoint
// identified by h.
func (s *State) GetQueueSize(h handle.Handle) int {
	if ep, ok := s.endpoints.ByHandle(h); ok {
		return ep.PendingMessageCount()
	}
	return 0
}

// GetTotalQueueSize reports how many messages are pending across every
// registered endpoint. The reference implementation overloads
// getQueueSize() for this total; Go has no overloading, so it gets its
// own name rather than colliding with GetQueueSize(handle.Handle).
func (s *State) GetTotalQueueSize() int {
	var total int
	s.endpoints.Each(func(ep *output.Endpoint) { total += ep.PendingMessageCount() })
	return total
}

// GetFilterQueueSize reports how many messages are pending on the
// filter identified by h, checking both the source and destination
// filter registries.
func (s *State) GetFilterQueueSize(h handle.Handle) int {
	if f, ok := s.sourceFilters.ByHandle(h); ok {
		return f.PendingMessageCount()
	}
	if f, ok := s.destFilters.ByHandle(h); ok {
		return f.PendingMessageCount()
	}
	return 0
}

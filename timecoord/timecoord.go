// Package timecoord defines the contract a federate's time coordinator
// must satisfy, and ships Local, a simplified reference implementation
// sufficient to drive a federate through initialization, execution
// entry, and time advancement in tests and single-process deployments.
//
// The real HELICS TimeCoordinator resolves a distributed minimum-time
// algorithm across an arbitrary dependency graph of federates brokered
// through a core/broker hierarchy; that negotiation is explicitly out
// of scope here (see SPEC_FULL.md). Local instead grants time as soon
// as every known dependency has reported a time at or past the request,
// which is exact for the star and chain topologies the test scenarios
// exercise but is not a substitute for the original algorithm.
package timecoord

import (
	"sort"
	"sync"

	"github.com/corinnegroth/federate-core/action"
	"github.com/corinnegroth/federate-core/ftime"
)

// FedInfo carries the time-coordination parameters a federate declares
// at registration: how far apart its requested times must fall
// (TimeDelta), its periodic grid (Period, Offset), and the input/output
// delays it applies to incoming and outgoing traffic.
type FedInfo struct {
	Name         string
	TimeDelta    ftime.Time
	Period       ftime.Time
	Offset       ftime.Time
	InputDelay   ftime.Time
	OutputDelay  ftime.Time
	ImpactWindow ftime.Time
}

// IterationState reports the outcome of an exec-entry or time-request
// negotiation step.
type IterationState int

const (
	// Continue means the negotiation has not yet resolved; the caller
	// should keep draining its action queue and retry.
	Continue IterationState = iota
	// Complete means the request resolved to a granted value.
	Complete
	// Halted means the federation is stopping; no further time will be granted.
	Halted
	// Error means the negotiation failed.
	Error
)

// Coordinator is the contract FederateState drives time-advancement
// through. A federate calls TimeRequest to ask for a time, feeds
// incoming CMD_TIME_*/CMD_EXEC_* traffic to ProcessTimeMessage, and
// polls CheckTimeGrant/CheckExecEntry until the request resolves.
type Coordinator interface {
	SetInfo(info FedInfo)
	GetFedInfo() FedInfo

	SourceID() int32
	SetSourceID(id int32)
	SetMessageSender(sender func(action.Message))

	EnteringExecMode() IterationState
	CheckExecEntry() IterationState

	TimeRequest(next ftime.Time, iterate bool) ftime.Time
	ProcessTimeMessage(cmd action.Message) IterationState
	CheckTimeGrant() bool
	GrantedTime() ftime.Time
	CurrentIteration() uint32

	AddDependency(fed int32)
	AddDependent(fed int32)
	RemoveDependency(fed int32)
	RemoveDependent(fed int32)
	Dependents() []int32

	UpdateMessageTime(t ftime.Time)
	UpdateValueTime(t ftime.Time)
}

// Local is a single-process Coordinator. It tracks its dependencies'
// most recently reported times and grants a request as soon as every
// dependency, plus any pending message or value interrupt, is known to
// be at or past it.
type Local struct {
	mu sync.Mutex

	info     FedInfo
	sourceID int32
	sender   func(action.Message)

	execRequested bool
	execGranted   bool

	requested ftime.Time
	granted   ftime.Time
	iteration uint32

	dependencies map[int32]ftime.Time
	dependents   map[int32]bool

	messageTime ftime.Time
	valueTime   ftime.Time

	halted bool
	failed bool
}

// NewLocal returns a Local coordinator with no dependencies, granted at
// ftime.Initial.
func NewLocal() *Local {
	return &Local{
		granted:      ftime.Initial,
		dependencies: make(map[int32]ftime.Time),
		dependents:   make(map[int32]bool),
		messageTime:  ftime.MaxVal,
		valueTime:    ftime.MaxVal,
	}
}

// SetInfo records the coordinator's timing parameters.
func (c *Local) SetInfo(info FedInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
}

// GetFedInfo returns the coordinator's timing parameters.
func (c *Local) GetFedInfo() FedInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// SourceID returns the federate ID this coordinator acts on behalf of.
func (c *Local) SourceID() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceID
}

// SetSourceID sets the federate ID, typically once, after CMD_FED_ACK
// assigns a global ID.
func (c *Local) SetSourceID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceID = id
}

// SetMessageSender installs the function used to emit coordination
// traffic (CMD_EXEC_REQUEST, CMD_TIME_REQUEST) toward the federate's parent.
func (c *Local) SetMessageSender(sender func(action.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sender = sender
}

func (c *Local) send(msg action.Message) {
	if c.sender != nil {
		c.sender(msg)
	}
}

func (c *Local) allDependenciesAtLeast(t ftime.Time) bool {
	for _, reported := range c.dependencies {
		if reported < t {
			return false
		}
	}
	return true
}

// EnteringExecMode announces the federate's readiness to enter
// execution and returns Complete immediately if it has no outstanding
// dependencies, otherwise Continue; the caller should keep calling
// CheckExecEntry as dependency traffic arrives.
func (c *Local) EnteringExecMode() IterationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.execRequested = true
	c.send(action.Message{Action: action.CmdExecRequest, SourceID: c.sourceID})

	if c.allDependenciesAtLeast(ftime.Zero) {
		c.execGranted = true
		c.granted = c.info.Offset
		return Complete
	}
	return Continue
}

// CheckExecEntry re-evaluates exec-entry readiness without re-sending
// the request, for use in a poll loop after EnteringExecMode returned
// Continue.
func (c *Local) CheckExecEntry() IterationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.halted {
		return Halted
	}
	if c.failed {
		return Error
	}
	if c.execGranted {
		return Complete
	}
	if c.allDependenciesAtLeast(ftime.Zero) {
		c.execGranted = true
		c.granted = c.info.Offset
		return Complete
	}
	return Continue
}

// TimeRequest asks to advance to next and returns the time actually
// granted by this call. iterate increments the iteration counter
// instead of resetting it to zero; the requested time is next either
// way, not the current granted time. The grant is capped to the
// minimum of next and any known interrupt: a dependency that hasn't
// yet caught up, a pending message, or a pending value update.
func (c *Local) TimeRequest(next ftime.Time, iterate bool) ftime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requested = next
	if iterate {
		c.iteration++
	} else {
		c.iteration = 0
	}

	c.send(action.Message{Action: action.CmdTimeRequest, SourceID: c.sourceID, ActionTime: next, Iteration: c.iteration})

	var allowed = next
	for _, reported := range c.dependencies {
		if reported < allowed {
			allowed = reported
		}
	}
	if c.messageTime < allowed {
		allowed = c.messageTime
	}
	if c.valueTime < allowed {
		allowed = c.valueTime
	}
	if allowed > c.granted {
		c.granted = allowed
	}
	return c.granted
}

// ProcessTimeMessage folds an incoming coordination command into the
// coordinator's state and reports the resulting iteration state.
func (c *Local) ProcessTimeMessage(cmd action.Message) IterationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Action {
	case action.CmdExecGrant:
		c.execGranted = true
		c.granted = c.info.Offset
		return Complete
	case action.CmdTimeGrant:
		if cmd.ActionTime > c.granted {
			c.granted = cmd.ActionTime
		}
		c.iteration = cmd.Iteration
		return Complete
	case action.CmdStop, action.CmdDisconnect:
		c.halted = true
		return Halted
	case action.CmdError:
		c.failed = true
		return Error
	default:
		if _, tracked := c.dependencies[cmd.SourceID]; tracked {
			c.dependencies[cmd.SourceID] = cmd.ActionTime
		}
		if c.requested != ftime.Zero && c.allDependenciesAtLeast(c.requested) {
			return Complete
		}
		return Continue
	}
}

// CheckTimeGrant reports whether the most recent TimeRequest's target
// has actually been reached by the granted time.
func (c *Local) CheckTimeGrant() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted >= c.requested
}

// GrantedTime returns the most recently granted time.
func (c *Local) GrantedTime() ftime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted
}

// CurrentIteration returns the iteration count of the current time step.
func (c *Local) CurrentIteration() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iteration
}

// AddDependency registers fed as a federate this coordinator must wait
// on before granting time past fed's last reported time.
func (c *Local) AddDependency(fed int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dependencies[fed]; !ok {
		c.dependencies[fed] = ftime.MinVal
	}
}

// AddDependent registers fed as a federate waiting on this one.
func (c *Local) AddDependent(fed int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dependents[fed] = true
}

// RemoveDependency drops fed from the dependency set.
func (c *Local) RemoveDependency(fed int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dependencies, fed)
}

// RemoveDependent drops fed from the dependent set.
func (c *Local) RemoveDependent(fed int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dependents, fed)
}

// Dependents returns the federate IDs currently waiting on this one, sorted.
func (c *Local) Dependents() []int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out = make([]int32, 0, len(c.dependents))
	for fed := range c.dependents {
		out = append(out, fed)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UpdateMessageTime records the earliest pending outbound-delivery time
// a queued message imposes, which can cap how far a time request is
// allowed to advance.
func (c *Local) UpdateMessageTime(t ftime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.messageTime {
		c.messageTime = t
	}
}

// UpdateValueTime records the earliest pending subscription update
// time, which likewise caps time advancement unless the input declared
// itself not_interruptible.
func (c *Local) UpdateValueTime(t ftime.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.valueTime {
		c.valueTime = t
	}
}

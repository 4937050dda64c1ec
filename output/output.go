// Package output implements a federate's outbound and message-passing
// surfaces: publications (simple time-stamped value broadcast),
// endpoints (addressed message send/receive with a time-ordered
// mailbox), and filters (message transforms chained onto an endpoint,
// with a time-ordered mailbox of their own). It is grounded on
// helics::PublicationInfo, helics::EndpointInfo, and helics::FilterInfo
// from original_source/src/helics/core, generalized the same way the
// input package generalizes InputInfo: one Go type per HELICS interface
// kind, each satisfying handle.Identified so a single handle.Registry
// instantiation serves all four.
package output

import (
	"sort"
	"sync"

	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/handle"
)

// Publication is the source side of a value interface: it has no
// buffer of its own, only the bookkeeping FederateState needs to
// validate and route CMD_PUB traffic to subscribers.
type Publication struct {
	mu sync.Mutex

	id       handle.Handle
	name     string
	pubType  string
	units    string
	required bool

	subscribers []handle.GlobalHandle
}

// NewPublication returns a Publication for the given handle.
func NewPublication(id handle.Handle, name, pubType, units string) *Publication {
	return &Publication{id: id, name: name, pubType: pubType, units: units}
}

// ID implements handle.Identified.
func (p *Publication) ID() handle.Handle { return p.id }

// Name implements handle.Identified.
func (p *Publication) Name() string { return p.name }

// Type returns the publication's declared type.
func (p *Publication) Type() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pubType
}

// Units returns the publication's declared units.
func (p *Publication) Units() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.units
}

// AddSubscriber records a downstream subscriber. federate.State.Publish
// sends a CMD_PUB to every recorded subscriber; the receiving Input
// still accepts it only from its own bound target (see input.Input).
func (p *Publication) AddSubscriber(sub handle.GlobalHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, sub)
}

// Subscribers returns a copy of the publication's recorded subscribers.
func (p *Publication) Subscribers() []handle.GlobalHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out = make([]handle.GlobalHandle, len(p.subscribers))
	copy(out, p.subscribers)
	return out
}

// Message is an addressed, time-stamped message traveling between
// endpoints or through a filter chain.
type Message struct {
	Source      handle.GlobalHandle
	Destination handle.GlobalHandle
	SourceName  string
	DestName    string
	OriginalSrc string
	Time        ftime.Time
	Data        []byte
}

func messageLess(a, b Message) bool { return a.Time < b.Time }

// messageQueue is the time-ordered mailbox shared by Endpoint and
// Filter: both hold a queue of in-flight Messages, drained by the
// owning federate's receive/receiveAny/receiveAnyFilter calls.
type messageQueue struct {
	mu    sync.Mutex
	items []Message
}

func (q *messageQueue) deliver(msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || !messageLess(msg, q.items[len(q.items)-1]) {
		q.items = append(q.items, msg)
		return
	}
	var idx = sort.Search(len(q.items), func(i int) bool { return messageLess(msg, q.items[i]) })
	q.items = append(q.items, Message{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = msg
}

func (q *messageQueue) firstMessageTime() ftime.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return ftime.MaxVal
	}
	return q.items[0].Time
}

func (q *messageQueue) getMessage(grantTime ftime.Time) (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.items[0].Time > grantTime {
		return Message{}, false
	}
	var msg = q.items[0]
	q.items = q.items[1:]
	return msg, true
}

func (q *messageQueue) pendingMessageCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Endpoint is a federate's addressed message mailbox: messages destined
// for it are inserted in time order and drained by the owning
// federate's receive/receiveAny calls.
type Endpoint struct {
	id       handle.Handle
	name     string
	specType string

	mailbox messageQueue

	mu        sync.Mutex
	hasFilter bool
}

// NewEndpoint returns an Endpoint for the given handle.
func NewEndpoint(id handle.Handle, name, specType string) *Endpoint {
	return &Endpoint{id: id, name: name, specType: specType}
}

// ID implements handle.Identified.
func (e *Endpoint) ID() handle.Handle { return e.id }

// Name implements handle.Identified.
func (e *Endpoint) Name() string { return e.name }

// Type returns the endpoint's declared message type.
func (e *Endpoint) Type() string { return e.specType }

// Deliver inserts msg into the endpoint's mailbox in time order.
func (e *Endpoint) Deliver(msg Message) { e.mailbox.deliver(msg) }

// FirstMessageTime returns the time of the earliest pending message, or
// ftime.MaxVal if the mailbox is empty.
func (e *Endpoint) FirstMessageTime() ftime.Time { return e.mailbox.firstMessageTime() }

// GetMessage pops and returns the earliest pending message whose time
// is <= grantTime. ok is false if no such message is pending.
func (e *Endpoint) GetMessage(grantTime ftime.Time) (Message, bool) {
	return e.mailbox.getMessage(grantTime)
}

// PendingMessageCount reports how many messages are currently buffered.
func (e *Endpoint) PendingMessageCount() int { return e.mailbox.pendingMessageCount() }

// SetHasFilter records that a remote source filter now intercepts this
// endpoint's outgoing traffic, set by CMD_REG_SRC_FILTER/
// CMD_NOTIFY_SRC_FILTER dispatch. The flag is only recorded:
// federate.State.SendMessage does not consult it and always sends
// CMD_SEND_MESSAGE directly to the destination.
func (e *Endpoint) SetHasFilter(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hasFilter = v
}

// HasFilter reports whether a source filter intercepts this endpoint's
// outgoing traffic.
func (e *Endpoint) HasFilter() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasFilter
}

// FilterKind distinguishes source-side filters (applied as a message
// leaves its originating endpoint) from destination-side filters
// (applied just before delivery).
type FilterKind int

const (
	// FilterSource marks a filter bound to an endpoint's outgoing traffic.
	FilterSource FilterKind = iota
	// FilterDest marks a filter bound to an endpoint's incoming traffic.
	FilterDest
)

// Filter transforms messages in flight between endpoints. The
// transform itself is out of scope here: CMD_SEND_FOR_FILTER delivers
// the message into the filter's own mailbox, the owning federate's
// application code reads it via receiveAnyFilter, applies the operator,
// and sends the result onward — Filter only tracks the registration
// bookkeeping and the mailbox that round trip needs.
type Filter struct {
	id       handle.Handle
	name     string
	kind     FilterKind
	operator string

	mailbox messageQueue

	mu         sync.Mutex
	target     handle.GlobalHandle
	targetName string
}

// NewFilter returns a Filter for the given handle and kind, configured
// to bind to the endpoint named targetName once that endpoint registers
// (see CMD_REG_END/CMD_NOTIFY_END dispatch).
func NewFilter(id handle.Handle, name string, kind FilterKind, operator, targetName string) *Filter {
	return &Filter{id: id, name: name, kind: kind, operator: operator, targetName: targetName}
}

// ID implements handle.Identified.
func (f *Filter) ID() handle.Handle { return f.id }

// Name implements handle.Identified.
func (f *Filter) Name() string { return f.name }

// Kind reports whether the filter binds to source or destination traffic.
func (f *Filter) Kind() FilterKind { return f.kind }

// Operator returns the filter's configured operator name (e.g. "delay",
// "randomDelay"); the operator's behavior is implemented by the
// federate on the other side of the CMD_SEND_FOR_FILTER round trip.
func (f *Filter) Operator() string { return f.operator }

// TargetName returns the name of the endpoint this filter was declared
// against, used to resolve BindTarget once that endpoint registers.
func (f *Filter) TargetName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targetName
}

// BindTarget records the endpoint this filter is attached to.
func (f *Filter) BindTarget(target handle.GlobalHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = target
}

// Target returns the endpoint this filter is attached to.
func (f *Filter) Target() handle.GlobalHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

// Deliver inserts msg into the filter's mailbox in time order, for a
// CMD_SEND_FOR_FILTER round trip.
func (f *Filter) Deliver(msg Message) { f.mailbox.deliver(msg) }

// FirstMessageTime returns the time of the earliest pending message, or
// ftime.MaxVal if the mailbox is empty.
func (f *Filter) FirstMessageTime() ftime.Time { return f.mailbox.firstMessageTime() }

// GetMessage pops and returns the earliest pending message whose time
// is <= grantTime. ok is false if no such message is pending.
func (f *Filter) GetMessage(grantTime ftime.Time) (Message, bool) {
	return f.mailbox.getMessage(grantTime)
}

// PendingMessageCount reports how many messages are currently buffered.
func (f *Filter) PendingMessageCount() int { return f.mailbox.pendingMessageCount() }

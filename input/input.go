// Package input implements the federate's subscription side: an Input
// buffers time-stamped value updates from one or more upstream sources
// and reveals them to the owning federate at well-defined moments. It
// is grounded on helics::InputInfo and helics::SubscriptionInfo from
// original_source/src/helics/core/InputInfo.cpp, generalized from the
// single-source subscription the reference FederateState.cpp dispatches
// against into the multi-source merge InputInfo.cpp itself implements.
package input

import (
	"bytes"
	"sort"
	"sync"

	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/handle"
)

// multiSentinel is the type/units value an Input reports once it has
// been told about sources that disagree on type or units.
const multiSentinel = "multi"

// dataRecord is one buffered, time-stamped update for a single source
// slot, ordered within its slot's queue by (Time, Iteration).
type dataRecord struct {
	Time      ftime.Time
	Iteration uint32
	Payload   []byte
}

func recordLess(a, b dataRecord) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.Iteration < b.Iteration
}

// sourceSlot is one registered upstream source of an Input: its
// declared type/units, its buffered queue, and the deactivation cutoff
// removeSource lowers when the source is torn down.
type sourceSlot struct {
	source      handle.GlobalHandle
	name        string
	sType       string
	sUnits      string
	priority    int
	deactivated ftime.Time
	queue       []dataRecord

	currentData     []byte
	currentDataTime ftime.Time
	currentIter     uint32
	hasCurrentData  bool
}

// Input is a subscription's time-ordered, multi-source value buffer.
// It implements handle.Identified so a federate's subscription registry
// can hold it directly.
type Input struct {
	mu sync.Mutex

	id       handle.Handle
	name     string
	declType string
	declUnit string
	required bool

	sources []*sourceSlot

	// target is the single source gate a CMD_PUB dispatch validates
	// against: HELICS' simple one-publisher-one-subscriber wiring binds
	// a subscription to exactly one federate via CMD_REG_PUB/NOTIFY_PUB,
	// and only that federate's published updates are accepted, even
	// though the underlying buffer supports arbitrarily many sources
	// for the multi-input merge case.
	target    handle.GlobalHandle
	hasTarget bool

	// NotInterruptible, when set, makes NextValueTime always report
	// ftime.MaxVal so pending updates never force a smaller grant time.
	NotInterruptible bool
	// OnlyUpdateOnChange, when set, makes updateData a no-op (returning
	// false) whenever the new payload is byte-identical to what's
	// currently revealed, aside from bumping the recorded iteration.
	OnlyUpdateOnChange bool
}

// New returns an Input for the given handle, declared type, and units.
func New(id handle.Handle, name, declType, declUnit string, required bool) *Input {
	return &Input{id: id, name: name, declType: declType, declUnit: declUnit, required: required}
}

// ID implements handle.Identified.
func (in *Input) ID() handle.Handle { return in.id }

// Name implements handle.Identified.
func (in *Input) Name() string { return in.name }

// Required reports whether the input was declared required.
func (in *Input) Required() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.required
}

// Type returns the Input's declared type, or "multi" once sources with
// disagreeing types have been added.
func (in *Input) Type() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.declType
}

// Units returns the Input's declared units, or "multi" once sources
// with disagreeing units have been added.
func (in *Input) Units() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.declUnit
}

// BindSource records source as the single federate this Input accepts
// direct CMD_PUB updates from, and ensures a source slot exists for it.
// Called from CMD_REG_PUB/CMD_NOTIFY_PUB dispatch.
func (in *Input) BindSource(source handle.GlobalHandle, name, sType, sUnits string) {
	in.mu.Lock()
	in.target = source
	in.hasTarget = true
	in.mu.Unlock()

	in.AddSource(source, name, sType, sUnits)
}

// AcceptsSource reports whether source belongs to the same federate as
// the Input's bound target, per BindSource; only the FederateID is
// compared, not the Handle. An Input with no bound target accepts nothing via the
// gated CMD_PUB path (only direct AddSource/AddData calls apply).
func (in *Input) AcceptsSource(source handle.GlobalHandle) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.hasTarget && source.FederateID == in.target.FederateID
}

// AddSource appends a new source slot. The first source establishes the
// Input's declared type/units; subsequent disagreement flips them to
// "multi". Duplicate sources (the same GlobalHandle added more than
// once) are permitted and create independent slots — this mirrors
// InputInfo.cpp's own behavior, which the original authors left an open
// question about (see DESIGN.md); this implementation preserves rather
// than resolves it.
func (in *Input) AddSource(source handle.GlobalHandle, name, sType, sUnits string) int {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.sources) == 0 {
		in.declType = sType
		in.declUnit = sUnits
	} else {
		if in.declType != sType {
			in.declType = multiSentinel
		}
		if in.declUnit != sUnits {
			in.declUnit = multiSentinel
		}
	}

	in.sources = append(in.sources, &sourceSlot{
		source:      source,
		name:        name,
		sType:       sType,
		sUnits:      sUnits,
		deactivated: ftime.MaxVal,
	})
	return len(in.sources) - 1
}

// AddData locates the slot(s) matching sourceID and inserts the update
// in sorted (time, iteration) order, unless valueTime exceeds that
// slot's deactivation cutoff, in which case it is dropped silently. If
// more than one slot shares sourceID (see AddSource), the update is
// delivered to all of them, matching the reference loop which does not
// break after the first match for addData's sibling operations.
func (in *Input) AddData(sourceID handle.GlobalHandle, valueTime ftime.Time, iteration uint32, payload []byte) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, slot := range in.sources {
		if slot.source != sourceID {
			continue
		}
		if valueTime > slot.deactivated {
			continue
		}
		var rec = dataRecord{Time: valueTime, Iteration: iteration, Payload: payload}
		if len(slot.queue) == 0 || valueTime > slot.queue[len(slot.queue)-1].Time {
			slot.queue = append(slot.queue, rec)
			continue
		}
		var idx = sort.Search(len(slot.queue), func(i int) bool {
			return recordLess(rec, slot.queue[i])
		})
		slot.queue = append(slot.queue, dataRecord{})
		copy(slot.queue[idx+1:], slot.queue[idx:])
		slot.queue[idx] = rec
	}
}

// RemoveSource truncates every slot matching source to entries with
// time <= minTime and lowers that slot's deactivation cutoff to minTime
// if it isn't already lower. All matching slots are truncated (see
// AddSource's note on duplicate sources).
func (in *Input) RemoveSource(source handle.GlobalHandle, minTime ftime.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, slot := range in.sources {
		if slot.source == source {
			in.truncateSlot(slot, minTime)
		}
	}
}

// RemoveSourceByName is RemoveSource keyed by the source's registered
// name rather than its GlobalHandle, matching InputInfo.cpp's overload.
func (in *Input) RemoveSourceByName(name string, minTime ftime.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, slot := range in.sources {
		if slot.name == name {
			in.truncateSlot(slot, minTime)
		}
	}
}

func (in *Input) truncateSlot(slot *sourceSlot, minTime ftime.Time) {
	for len(slot.queue) > 0 && slot.queue[len(slot.queue)-1].Time > minTime {
		slot.queue = slot.queue[:len(slot.queue)-1]
	}
	if minTime < slot.deactivated {
		slot.deactivated = minTime
	}
}

// ClearFutureData discards every buffered-but-unrevealed record across
// every source slot, without touching deactivation cutoffs. Useful
// after a rollback, when speculative future data must be dropped but
// the sources themselves remain active.
func (in *Input) ClearFutureData() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, slot := range in.sources {
		slot.queue = nil
	}
}

// updateData writes rec into slot's revealed value unless
// OnlyUpdateOnChange is set and rec's payload is byte-identical to what
// is currently revealed. It reports whether a semantic update occurred;
// even when it returns false because the payload didn't change, the
// iteration bookkeeping is still advanced if the time matches, per
// InputInfo.cpp's updateData.
func (in *Input) updateData(slot *sourceSlot, rec dataRecord) bool {
	if !in.OnlyUpdateOnChange || !slot.hasCurrentData || !bytes.Equal(slot.currentData, rec.Payload) {
		slot.currentData = rec.Payload
		slot.currentDataTime = rec.Time
		slot.currentIter = rec.Iteration
		slot.hasCurrentData = true
		return true
	}
	if slot.currentDataTime == rec.Time {
		slot.currentIter = rec.Iteration
	}
	return false
}

// UpdateTimeUpTo advances each slot past every record with time <
// newTime, revealing the last such record as current. No record with
// time == newTime is consumed.
func (in *Input) UpdateTimeUpTo(newTime ftime.Time) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	var updated = false
	for _, slot := range in.sources {
		if len(slot.queue) == 0 || slot.queue[0].Time >= newTime {
			continue
		}
		var consumeTo = 0
		for consumeTo+1 < len(slot.queue) && slot.queue[consumeTo+1].Time < newTime {
			consumeTo++
		}
		if in.updateData(slot, slot.queue[consumeTo]) {
			updated = true
		}
		slot.queue = slot.queue[consumeTo+1:]
	}
	return updated
}

// UpdateTimeInclusive is UpdateTimeUpTo, but also consumes records with
// time == newTime.
func (in *Input) UpdateTimeInclusive(newTime ftime.Time) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	var updated = false
	for _, slot := range in.sources {
		if len(slot.queue) == 0 || slot.queue[0].Time > newTime {
			continue
		}
		var consumeTo = 0
		for consumeTo+1 < len(slot.queue) && slot.queue[consumeTo+1].Time <= newTime {
			consumeTo++
		}
		if in.updateData(slot, slot.queue[consumeTo]) {
			updated = true
		}
		slot.queue = slot.queue[consumeTo+1:]
	}
	return updated
}

// UpdateTimeNextIteration is UpdateTimeUpTo, and additionally, when a
// record exists with time == newTime, consumes the longest run of
// records at that time sharing the iteration number of the last
// consumed record.
func (in *Input) UpdateTimeNextIteration(newTime ftime.Time) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	var updated = false
	for _, slot := range in.sources {
		if len(slot.queue) == 0 || slot.queue[0].Time > newTime {
			continue
		}
		var consumeTo = 0
		for consumeTo+1 < len(slot.queue) && slot.queue[consumeTo+1].Time < newTime {
			consumeTo++
		}
		if consumeTo+1 < len(slot.queue) && slot.queue[consumeTo+1].Time == newTime {
			var iter = slot.queue[consumeTo].Iteration
			for consumeTo+1 < len(slot.queue) &&
				slot.queue[consumeTo+1].Time == newTime &&
				slot.queue[consumeTo+1].Iteration == iter {
				consumeTo++
			}
		}
		if in.updateData(slot, slot.queue[consumeTo]) {
			updated = true
		}
		slot.queue = slot.queue[consumeTo+1:]
	}
	return updated
}

// GetData returns the revealed payload for the slot at index, or
// (nil, false) if index is out of range or that slot has no revealed
// value yet.
func (in *Input) GetData(index int) ([]byte, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index < 0 || index >= len(in.sources) {
		return nil, false
	}
	var slot = in.sources[index]
	if !slot.hasCurrentData {
		return nil, false
	}
	return slot.currentData, true
}

// GetDataPriority performs a priority-arbitrated read: it returns the
// payload of the slot with the greatest current_data_time, breaking
// ties in favor of the highest Priority among tied slots, along with
// that slot's index. ok is false if no slot has a revealed value.
func (in *Input) GetDataPriority() (payload []byte, index int, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	var best = -1
	var bestTime = ftime.MinVal
	for i, slot := range in.sources {
		if !slot.hasCurrentData {
			continue
		}
		if slot.currentDataTime > bestTime {
			bestTime = slot.currentDataTime
			best = i
		} else if slot.currentDataTime == bestTime && best >= 0 && slot.priority > in.sources[best].priority {
			best = i
		}
	}
	if best < 0 {
		return nil, 0, false
	}
	return in.sources[best].currentData, best, true
}

// SetPriority sets the arbitration priority of the slot at index.
func (in *Input) SetPriority(index, priority int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index >= 0 && index < len(in.sources) {
		in.sources[index].priority = priority
	}
}

// NextValueTime returns the minimum queue-head time across all source
// slots, or ftime.MaxVal if NotInterruptible is set or every slot is
// empty.
func (in *Input) NextValueTime() ftime.Time {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.NotInterruptible {
		return ftime.MaxVal
	}
	var next = ftime.MaxVal
	for _, slot := range in.sources {
		if len(slot.queue) > 0 && slot.queue[0].Time < next {
			next = slot.queue[0].Time
		}
	}
	return next
}

// SourceCount returns the number of registered source slots, including
// duplicates.
func (in *Input) SourceCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.sources)
}

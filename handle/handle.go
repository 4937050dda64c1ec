// Package handle defines the federate-local and federation-global
// identifiers used to name publications, subscriptions, endpoints, and
// filters, along with the Registry used to look them up by either name
// or handle.
package handle

import "fmt"

// Handle is a federate-local identifier for a registered item. Handles
// are assigned densely and monotonically by the owning federate; their
// ordering is meaningful and is relied on by Registry's handle-sorted
// lookup.
type Handle int32

// Invalid is returned in place of a Handle when no item qualifies, e.g.
// by ReceiveAny when no endpoint has a deliverable message.
const Invalid Handle = -1

func (h Handle) String() string {
	if h == Invalid {
		return "<invalid>"
	}
	return fmt.Sprintf("%d", int32(h))
}

// GlobalHandle uniquely identifies an item across the federation by
// pairing the owning federate's identifier with its local Handle.
type GlobalHandle struct {
	FederateID int32
	Handle     Handle
}

func (g GlobalHandle) String() string {
	return fmt.Sprintf("%d/%s", g.FederateID, g.Handle)
}

// IsValid reports whether g's Handle is not Invalid. The FederateID is
// not checked.
func (g GlobalHandle) IsValid() bool {
	return g.Handle != Invalid
}

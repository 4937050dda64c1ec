// Package action defines the ActionMessage wire-level command exchanged
// between a federate and its broker/core, and the thread-safe queue a
// FederateState drains them from.
package action

import (
	"fmt"

	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/handle"
)

// Command identifies the kind of an ActionMessage.
type Command int32

const (
	CmdIgnore Command = iota

	// Control.
	CmdInitGrant
	CmdExecRequest
	CmdExecGrant
	CmdExecCheck
	CmdTimeRequest
	CmdTimeGrant
	CmdTimeCheck
	CmdStop
	CmdDisconnect
	CmdError
	CmdFedAck

	// Registration / notification.
	CmdRegPub
	CmdNotifyPub
	CmdRegSub
	CmdNotifySub
	CmdRegEnd
	CmdNotifyEnd
	CmdAddDependency
	CmdAddDependent
	CmdRemoveDependency
	CmdRemoveDependent
	CmdRegDstFilter
	CmdNotifyDstFilter
	CmdRegSrcFilter
	CmdNotifySrcFilter

	// Data.
	CmdSendMessage
	CmdSendForFilter
	CmdPub
)

var commandNames = map[Command]string{
	CmdIgnore:           "IGNORE",
	CmdInitGrant:        "INIT_GRANT",
	CmdExecRequest:      "EXEC_REQUEST",
	CmdExecGrant:        "EXEC_GRANT",
	CmdExecCheck:        "EXEC_CHECK",
	CmdTimeRequest:      "TIME_REQUEST",
	CmdTimeGrant:        "TIME_GRANT",
	CmdTimeCheck:        "TIME_CHECK",
	CmdStop:             "STOP",
	CmdDisconnect:       "DISCONNECT",
	CmdError:            "ERROR",
	CmdFedAck:           "FED_ACK",
	CmdRegPub:           "REG_PUB",
	CmdNotifyPub:        "NOTIFY_PUB",
	CmdRegSub:           "REG_SUB",
	CmdNotifySub:        "NOTIFY_SUB",
	CmdRegEnd:           "REG_END",
	CmdNotifyEnd:        "NOTIFY_END",
	CmdAddDependency:    "ADD_DEPENDENCY",
	CmdAddDependent:     "ADD_DEPENDENT",
	CmdRemoveDependency: "REMOVE_DEPENDENCY",
	CmdRemoveDependent:  "REMOVE_DEPENDENT",
	CmdRegDstFilter:     "REG_DST_FILTER",
	CmdNotifyDstFilter:  "NOTIFY_DST_FILTER",
	CmdRegSrcFilter:     "REG_SRC_FILTER",
	CmdNotifySrcFilter:  "NOTIFY_SRC_FILTER",
	CmdSendMessage:      "SEND_MESSAGE",
	CmdSendForFilter:    "SEND_FOR_FILTER",
	CmdPub:              "PUB",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int32(c))
}

// Message is a tagged command exchanged between a federate and its
// broker/core. Not every field is meaningful for every Command; see the
// dispatch table in package federate for which fields each Command
// reads.
type Message struct {
	Action       Command
	SourceID     int32
	SourceHandle handle.Handle
	DestID       int32
	DestHandle   handle.Handle
	ActionTime   ftime.Time
	Payload      []byte
	Name         string
	// Error is set on CmdFedAck and CmdError to indicate the broker
	// rejected the registration or encountered a protocol fault.
	Error bool
	// Iteration is the sub-step counter attached to CmdPub updates, fed
	// through to InputInfo.AddData so multi-iteration value merges sort
	// correctly even when several updates share a time.
	Iteration uint32
	// Iterate marks a CmdTimeRequest as the next iteration of the current
	// time step: the coordinator's iteration counter is incremented
	// instead of reset. ActionTime is still the time requested.
	Iterate bool
}

package federate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corinnegroth/federate-core/action"
	"github.com/corinnegroth/federate-core/federate"
	"github.com/corinnegroth/federate-core/ftime"
	"github.com/corinnegroth/federate-core/handle"
	"github.com/corinnegroth/federate-core/timecoord"
)

func newTestFederate(t *testing.T) (*federate.State, *action.Queue, context.Context, context.CancelFunc) {
	t.Helper()
	var q = action.NewQueue()
	var coord = timecoord.NewLocal()
	var s = federate.New("fed1", q, action.SenderFunc(func(action.Message) {}), coord, nil)
	var ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	go s.Run(ctx)
	return s, q, ctx, cancel
}

func newTestFederateWithImpactWindow(t *testing.T, impactWindow ftime.Time) (*federate.State, *action.Queue, context.Context, context.CancelFunc) {
	t.Helper()
	var q = action.NewQueue()
	var coord = timecoord.NewLocal()
	coord.SetInfo(timecoord.FedInfo{Name: "fed1", ImpactWindow: impactWindow})
	var s = federate.New("fed1", q, action.SenderFunc(func(action.Message) {}), coord, nil)
	var ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	go s.Run(ctx)
	return s, q, ctx, cancel
}

// S1: a federate registers and receives its global ID via CMD_FED_ACK.
func TestScenarioSetupAndAck(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()

	assert.Equal(t, federate.Created, s.Phase())
	q.Push(action.Message{Action: action.CmdFedAck, DestID: 7})

	require.Equal(t, federate.Complete, s.WaitSetup(ctx))
	assert.Equal(t, int32(7), s.ID())
}

// S2: a federate advances from Created into Initializing.
func TestScenarioEnterInitializing(t *testing.T) {
	s, _, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))
	assert.Equal(t, federate.Initializing, s.Phase())
}

// S3: a federate with no dependencies enters Executing immediately.
func TestScenarioEnterExecutingWithNoDependencies(t *testing.T) {
	s, _, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))
	require.Equal(t, federate.Complete, s.EnterExecutingState(ctx))
	assert.Equal(t, federate.Executing, s.Phase())
}

// S4: a federate blocked on an unresolved dependency reports Nonconverged
// rather than a bare false once its context expires.
func TestScenarioEnterExecutingNonconvergedOnUnresolvedDependency(t *testing.T) {
	s, q, _, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(context.Background()))
	q.Push(action.Message{Action: action.CmdAddDependency, SourceID: 42})
	require.Eventually(t, func() bool { return len(s.Dependencies()) == 1 }, time.Second, 5*time.Millisecond)

	var shortCtx, shortCancel = context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer shortCancel()
	assert.Equal(t, federate.Nonconverged, s.EnterExecutingState(shortCtx))
	assert.NotEqual(t, federate.Executing, s.Phase())
}

// S4: a time request advances granted time once no dependency blocks it.
func TestScenarioTimeStepAdvancesGrantedTime(t *testing.T) {
	s, _, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))
	require.Equal(t, federate.Complete, s.EnterExecutingState(ctx))

	granted, state := s.RequestTime(ctx, 10, false)
	require.Equal(t, federate.Complete, state)
	assert.Equal(t, ftime.Time(10), granted)
}

// S5: a value published to a bound subscription is revealed to its
// owning federate once the federate's time advances to it.
func TestScenarioValueDelivery(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	in, err := s.CreateSubscription("voltage", "double", "V", true)
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdRegPub, SourceID: 99, SourceHandle: 3, DestHandle: in.ID(), Name: "gen1/voltage"})
	q.Push(action.Message{Action: action.CmdPub, SourceID: 99, SourceHandle: 3, DestHandle: in.ID(), ActionTime: 5, Payload: []byte("120.5")})

	require.Eventually(t, func() bool { return in.SourceCount() > 0 }, time.Second, 5*time.Millisecond)

	in.UpdateTimeInclusive(5)
	data, ok := in.GetData(0)
	require.True(t, ok)
	assert.Equal(t, "120.5", string(data))
}

// Property 7: a CMD_PUB's revealed timestamp is t + impactWindow.
func TestCmdPubRevealsAtImpactWindowOffsetTime(t *testing.T) {
	s, q, ctx, cancel := newTestFederateWithImpactWindow(t, 3)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	in, err := s.CreateSubscription("voltage", "double", "V", true)
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdRegPub, SourceID: 99, SourceHandle: 3, DestHandle: in.ID(), Name: "gen1/voltage"})
	q.Push(action.Message{Action: action.CmdPub, SourceID: 99, SourceHandle: 3, DestHandle: in.ID(), ActionTime: 5, Payload: []byte("120.5")})

	require.Eventually(t, func() bool { return in.NextValueTime() == ftime.Time(8) }, time.Second, 5*time.Millisecond,
		"revealed time should be actionTime(5) + impactWindow(3)")
}

// spec.md §4.5's CMD_SEND_MESSAGE delay and its explicit absence for
// CMD_SEND_FOR_FILTER.
func TestCmdSendMessageAppliesImpactWindowButFilterSendDoesNot(t *testing.T) {
	s, q, ctx, cancel := newTestFederateWithImpactWindow(t, 4)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	ep, err := s.CreateEndpoint("ep1", "string")
	require.NoError(t, err)
	f, err := s.CreateDestFilter("f1", "delay", "ep1")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdSendMessage, DestHandle: ep.ID(), ActionTime: 10, Payload: []byte("direct")})
	require.Eventually(t, func() bool { return ep.FirstMessageTime() == ftime.Time(14) }, time.Second, 5*time.Millisecond,
		"direct send should reveal at actionTime(10) + impactWindow(4)")

	q.Push(action.Message{Action: action.CmdSendForFilter, DestHandle: f.ID(), ActionTime: 10, Payload: []byte("filtered")})
	require.Eventually(t, func() bool { return f.FirstMessageTime() == ftime.Time(10) }, time.Second, 5*time.Millisecond,
		"CMD_SEND_FOR_FILTER must not apply impactWindow")
}

// CMD_SEND_FOR_FILTER must land on the addressed filter's own mailbox,
// not be dropped by a lookup that only checks the endpoint registry.
func TestCmdSendForFilterRoutesToSourceFilterMailbox(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	f, err := s.CreateSourceFilter("f1", "delay", "ep1")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdSendForFilter, DestHandle: f.ID(), ActionTime: 1, Payload: []byte("x")})
	require.Eventually(t, func() bool { return f.PendingMessageCount() == 1 }, time.Second, 5*time.Millisecond)
}

// S6: CmdStop halts the federate and closes its queue.
func TestScenarioHalt(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))
	s.Stop()

	require.Eventually(t, func() bool { return s.Phase() == federate.Finished }, time.Second, 5*time.Millisecond)
	q.Push(action.Message{Action: action.CmdTimeRequest})
	assert.Equal(t, 0, q.Len(), "queue should be closed and draining, not accumulating after halt")
}

// S6: a spectator blocked in RequestTime observes Halted, not a bare false.
func TestScenarioRequestTimeObservesHalted(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()

	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))
	require.Equal(t, federate.Complete, s.EnterExecutingState(ctx))

	q.Push(action.Message{Action: action.CmdStop, SourceID: s.ID()})

	_, state := s.RequestTime(ctx, 100, false)
	assert.Equal(t, federate.Halted, state)
}

func TestCreateSubscriptionRejectsDuplicateNames(t *testing.T) {
	s, _, _, cancel := newTestFederate(t)
	defer cancel()

	_, err := s.CreateSubscription("v", "double", "", true)
	require.NoError(t, err)
	_, err = s.CreateSubscription("v", "double", "", true)
	assert.Error(t, err)
}

func TestDependencyBookkeepingRoundTrips(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	q.Push(action.Message{Action: action.CmdAddDependency, SourceID: 5})
	q.Push(action.Message{Action: action.CmdAddDependent, SourceID: 6})
	require.Eventually(t, func() bool { return len(s.Dependencies()) == 1 && len(s.Dependents()) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int32{5}, s.Dependencies())
	assert.Equal(t, []int32{6}, s.Dependents())

	q.Push(action.Message{Action: action.CmdRemoveDependency, SourceID: 5})
	require.Eventually(t, func() bool { return len(s.Dependencies()) == 0 }, time.Second, 5*time.Millisecond)
}

// CMD_REG_END/CMD_NOTIFY_END must bind a locally declared filter to the
// newly registered remote endpoint by target name, and register the
// matching coordinator dependency/dependent.
func TestCmdRegEndBindsFiltersByTargetName(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	destFilter, err := s.CreateDestFilter("df", "delay", "remote/ep")
	require.NoError(t, err)
	srcFilter, err := s.CreateSourceFilter("sf", "delay", "remote/ep")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdRegEnd, SourceID: 9, SourceHandle: 2, Name: "remote/ep"})

	var wantTarget = handle.GlobalHandle{FederateID: 9, Handle: 2}
	require.Eventually(t, func() bool { return destFilter.Target() == wantTarget }, time.Second, 5*time.Millisecond)
	assert.Equal(t, wantTarget, srcFilter.Target())
	assert.Contains(t, s.Dependencies(), int32(9), "dest filter registration should add a dependency on the endpoint's federate")
	assert.Contains(t, s.Dependents(), int32(9), "source filter registration should add a dependent")
}

// CMD_REG_DST_FILTER must look dest_handle up in the endpoint registry
// (not a filter registry) and add a coordinator dependency.
func TestCmdRegDstFilterLooksUpEndpointAndAddsDependency(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	ep, err := s.CreateEndpoint("ep1", "string")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdRegDstFilter, SourceID: 3, DestHandle: ep.ID()})
	require.Eventually(t, func() bool { return len(s.Dependencies()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int32{3}, s.Dependencies())
}

// CMD_REG_SRC_FILTER must look dest_handle up in the endpoint registry,
// flag the endpoint hasFilter, and add a coordinator dependent.
func TestCmdRegSrcFilterFlagsEndpointAndAddsDependent(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	ep, err := s.CreateEndpoint("ep1", "string")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdRegSrcFilter, SourceID: 4, DestHandle: ep.ID()})
	require.Eventually(t, func() bool { return ep.HasFilter() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int32{4}, s.Dependents())
}

func TestGetEventsReportsReadyInputsAndEndpoints(t *testing.T) {
	s, _, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	in, err := s.CreateSubscription("v", "double", "", true)
	require.NoError(t, err)
	var source = handle.GlobalHandle{FederateID: 1, Handle: 1}
	in.BindSource(source, "x", "double", "")
	in.AddData(source, 1, 0, []byte("1.0"))
	in.UpdateTimeInclusive(1)

	ep, err := s.CreateEndpoint("ep", "string")
	require.NoError(t, err)

	inputs, endpoints := s.GetEvents(10)
	assert.Contains(t, inputs, "v")
	assert.NotContains(t, endpoints, "ep", "endpoint with no pending message should not be reported")
	_ = ep
}

func TestReceiveAndReceiveAny(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	ep1, err := s.CreateEndpoint("ep1", "string")
	require.NoError(t, err)
	ep2, err := s.CreateEndpoint("ep2", "string")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdSendMessage, DestHandle: ep2.ID(), ActionTime: 5, Payload: []byte("second")})
	q.Push(action.Message{Action: action.CmdSendMessage, DestHandle: ep1.ID(), ActionTime: 1, Payload: []byte("first")})
	require.Eventually(t, func() bool { return s.GetTotalQueueSize() == 2 }, time.Second, 5*time.Millisecond)

	msg, h, ok := s.ReceiveAny(ftime.MaxVal)
	require.True(t, ok)
	assert.Equal(t, "first", string(msg.Data))
	assert.Equal(t, ep1.ID(), h)

	assert.Equal(t, 1, s.GetQueueSize(ep2.ID()))

	msg2, ok := s.Receive(ep2.ID(), ftime.MaxVal)
	require.True(t, ok)
	assert.Equal(t, "second", string(msg2.Data))

	_, _, ok = s.ReceiveAny(ftime.MaxVal)
	assert.False(t, ok)
}

func TestReceiveAnyFilterDrainsBothFilterRegistries(t *testing.T) {
	s, q, ctx, cancel := newTestFederate(t)
	defer cancel()
	require.Equal(t, federate.Complete, s.EnterInitializingState(ctx))

	srcFilter, err := s.CreateSourceFilter("sf", "delay", "ep1")
	require.NoError(t, err)
	dstFilter, err := s.CreateDestFilter("df", "delay", "ep2")
	require.NoError(t, err)

	q.Push(action.Message{Action: action.CmdSendForFilter, DestHandle: dstFilter.ID(), ActionTime: 2, Payload: []byte("dst")})
	q.Push(action.Message{Action: action.CmdSendForFilter, DestHandle: srcFilter.ID(), ActionTime: 1, Payload: []byte("src")})
	require.Eventually(t, func() bool { return s.GetFilterQueueSize(srcFilter.ID())+s.GetFilterQueueSize(dstFilter.ID()) == 2 }, time.Second, 5*time.Millisecond)

	msg, h, ok := s.ReceiveAnyFilter(ftime.MaxVal)
	require.True(t, ok)
	assert.Equal(t, "src", string(msg.Data))
	assert.Equal(t, srcFilter.ID(), h)

	msg2, h2, ok := s.ReceiveAnyFilter(ftime.MaxVal)
	require.True(t, ok)
	assert.Equal(t, "dst", string(msg2.Data))
	assert.Equal(t, dstFilter.ID(), h2)
}

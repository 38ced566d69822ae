package simruntime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dporsched/internal/model"
	"dporsched/internal/runtimecontract"
)

type recordingInstrumenter struct {
	produced []string
	quiesced int
}

func (r *recordingInstrumenter) EventProduced(cell runtimecontract.Cell, env runtimecontract.Envelope, sender, receiver string, payload model.Payload) error {
	r.produced = append(r.produced, sender+"->"+receiver)
	return nil
}

func (r *recordingInstrumenter) NotifyQuiescence() error {
	r.quiesced++
	return nil
}

func (r *recordingInstrumenter) NotifyTimerScheduled(cell runtimecontract.Cell, env runtimecontract.Envelope, receiver string, marker model.TimerMarker) error {
	r.produced = append(r.produced, "$timer->"+receiver)
	return nil
}

func (r *recordingInstrumenter) NotifyTimerCancelled(receiver, timerName string) bool {
	return true
}

func TestRuntime_ActorOf_SendAndDispatch(t *testing.T) {
	instr := &recordingInstrumenter{}
	rt := New(instr)

	var received []model.Payload
	pong := Behavior(func(ctx *Context, msg model.Payload) {
		received = append(received, msg)
	})
	ping := Behavior(func(ctx *Context, msg model.Payload) {
		require.NoError(t, ctx.Send("pong", model.BytesPayload{Data: []byte("hello")}))
	})

	_, err := rt.ActorOf(pong, "pong")
	require.NoError(t, err)
	pingHandle, err := rt.ActorOf(ping, "ping")
	require.NoError(t, err)

	require.NoError(t, rt.Send(pingHandle, model.BytesPayload{}))

	env := cellEnvelope{actorName: "ping", payload: model.BytesPayload{}}
	require.NoError(t, rt.DispatchNewMessage("ping", env))
	require.Equal(t, []string{"$external->ping", "ping->pong"}, instr.produced)

	pongEnv := cellEnvelope{actorName: "pong", payload: model.BytesPayload{Data: []byte("hello")}}
	require.NoError(t, rt.DispatchNewMessage("pong", pongEnv))
	require.Len(t, received, 1)
	require.Equal(t, []string{"$external->ping", "ping->pong"}, instr.produced)
}

func TestRuntime_RestartSystem_ClearsActors(t *testing.T) {
	instr := &recordingInstrumenter{}
	rt := New(instr)
	_, err := rt.ActorOf(Behavior(func(ctx *Context, msg model.Payload) {}), "a")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, rt.ActorNames())

	require.NoError(t, rt.RestartSystem(context.Background()))
	require.Empty(t, rt.ActorNames())
}

func TestRuntime_AwaitEnqueue_ReportsQuiescenceImmediately(t *testing.T) {
	instr := &recordingInstrumenter{}
	rt := New(instr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.AwaitEnqueue(ctx))
	require.Equal(t, 1, instr.quiesced)
}

func TestRuntime_AwaitEnqueue_RespectsCancelledContext(t *testing.T) {
	instr := &recordingInstrumenter{}
	rt := New(instr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, rt.AwaitEnqueue(ctx))
}

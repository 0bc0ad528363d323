package kernel

import (
	"testing"
	"time"
)

func TestCapabilityRestrict(t *testing.T) {
	k := New()
	c := k.NewEndpoint(RightSend | RightRecv)
	if !c.Valid() {
		t.Fatal("expected valid capability")
	}
	send := c.Restrict(RightSend)
	if !send.canSend() || send.canRecv() {
		t.Fatalf("unexpected rights %b", send.rights)
	}
	if send.Restrict(RightRecv).Valid() {
		t.Fatal("restricting to a right not held must yield an invalid capability")
	}
	if (Capability{}).Restrict(RightSend).Valid() {
		t.Fatal("zero capability must stay invalid")
	}
}

func TestSendRecvRoundTrip(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}

	xfer := k.NewEndpoint(RightSend)
	if res := ctx.SendToCapResult(ep.Restrict(RightSend), 7, []byte("hi"), xfer); res != SendOK {
		t.Fatalf("send: %s", res)
	}
	msg, ok := ctx.Recv(ep.Restrict(RightRecv))
	if !ok {
		t.Fatal("expected message")
	}
	if msg.Kind != 7 || string(msg.Payload()) != "hi" {
		t.Fatalf("unexpected message kind=%d payload=%q", msg.Kind, msg.Payload())
	}
	if msg.Cap != xfer {
		t.Fatal("expected transferred capability")
	}
}

func TestSendChecksRights(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}

	if res := ctx.SendToCapResult(ep.Restrict(RightRecv), 1, nil, Capability{}); res != SendErrToNoSendRight {
		t.Fatalf("expected SendErrToNoSendRight, got %s", res)
	}
	if res := ctx.SendToCapResult(Capability{}, 1, nil, Capability{}); res != SendErrInvalidToCap {
		t.Fatalf("expected SendErrInvalidToCap, got %s", res)
	}
	if res := ctx.SendCapResult(ep.Restrict(RightRecv), ep, 1, nil, Capability{}); res != SendErrFromNoSendRight {
		t.Fatalf("expected SendErrFromNoSendRight, got %s", res)
	}
	if _, ok := ctx.RecvChan(ep.Restrict(RightSend)); ok {
		t.Fatal("receive without RightRecv must fail")
	}
	big := make([]byte, MaxMessageBytes+1)
	if res := ctx.SendToCapResult(ep, 1, big, Capability{}); res != SendErrPayloadTooLarge {
		t.Fatalf("expected SendErrPayloadTooLarge, got %s", res)
	}
}

func TestClosedEndpoint(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}

	if res := ctx.SendToCapResult(ep, 1, []byte("x"), Capability{}); res != SendOK {
		t.Fatalf("send: %s", res)
	}
	k.CloseEndpoint(ep)
	k.CloseEndpoint(ep)

	if res := ctx.SendToCapResult(ep, 1, []byte("y"), Capability{}); res != SendErrNoEndpoint {
		t.Fatalf("expected SendErrNoEndpoint, got %s", res)
	}
	if msg, ok := ctx.Recv(ep); !ok || string(msg.Payload()) != "x" {
		t.Fatal("expected queued message to drain after close")
	}
	if _, ok := ctx.Recv(ep); ok {
		t.Fatal("expected Recv to fail after close")
	}
	if _, ok := ctx.TryRecv(ep); ok {
		t.Fatal("expected TryRecv to fail after close")
	}
}

func TestMessagePayloadClampsLen(t *testing.T) {
	var msg Message
	msg.Len = MaxMessageBytes + 10
	if got := len(msg.Payload()); got != MaxMessageBytes {
		t.Fatalf("expected payload length %d, got %d", MaxMessageBytes, got)
	}
}

func TestEndpointTableLimit(t *testing.T) {
	k := New()
	for i := 0; i < maxEndpoints; i++ {
		if !k.NewEndpoint(RightSend).Valid() {
			t.Fatalf("endpoint %d should be allocated", i)
		}
	}
	if k.NewEndpoint(RightSend).Valid() {
		t.Fatal("expected table to be full")
	}
}

func fill(t *testing.T, ctx *Context, to Capability) {
	t.Helper()
	for i := 0; i < mailboxSlots; i++ {
		if res := ctx.SendToCapResult(to, 1, []byte("x"), Capability{}); res != SendOK {
			t.Fatalf("expected SendOK filling queue, got %s", res)
		}
	}
}

func TestSendToCapRetryZeroLimitDoesNotBlock(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}
	to := ep.Restrict(RightSend)
	fill(t, ctx, to)

	if res := ctx.SendToCapRetry(to, 1, []byte("y"), Capability{}, 0); res != SendErrQueueFull {
		t.Fatalf("expected SendErrQueueFull, got %s", res)
	}
}

func TestSendToCapRetrySucceedsAfterDrain(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}
	to := ep.Restrict(RightSend)
	ch, ok := ctx.RecvChan(ep.Restrict(RightRecv))
	if !ok {
		t.Fatal("expected recv channel")
	}
	fill(t, ctx, to)

	resultCh := make(chan SendResult, 1)
	go func() {
		resultCh <- ctx.SendToCapRetry(to, 1, []byte("y"), Capability{}, 5)
	}()

	<-ch
	go func() {
		for i := uint64(1); i <= 10; i++ {
			k.TickTo(i)
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case res := <-resultCh:
		if res != SendOK {
			t.Fatalf("expected SendOK after drain, got %s", res)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for send retry")
	}
}

func TestSendToCapRetryRespectsLimit(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	ctx := &Context{k: k, taskID: 1}
	to := ep.Restrict(RightSend)
	fill(t, ctx, to)

	resultCh := make(chan SendResult, 1)
	go func() {
		resultCh <- ctx.SendToCapRetry(to, 1, []byte("y"), Capability{}, 1)
	}()
	go func() {
		for i := uint64(1); i <= 10; i++ {
			k.TickTo(i)
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case res := <-resultCh:
		if res != SendErrQueueFull {
			t.Fatalf("expected SendErrQueueFull, got %s", res)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for send retry")
	}
}

func TestWaitTick(t *testing.T) {
	k := New()
	ctx := &Context{k: k}
	k.TickTo(5)
	k.TickTo(3)
	if got := ctx.NowTick(); got != 5 {
		t.Fatalf("expected tick 5, got %d", got)
	}

	done := make(chan uint64, 1)
	go func() { done <- ctx.WaitTick(5) }()
	select {
	case <-done:
		t.Fatal("WaitTick returned before the tick advanced")
	case <-time.After(10 * time.Millisecond):
	}
	k.TickTo(9)
	select {
	case got := <-done:
		if got != 9 {
			t.Fatalf("expected tick 9, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestTickChanDelivers(t *testing.T) {
	k := New()
	ctx := &Context{k: k}
	ch := ctx.TickChan()
	go func() {
		for i := uint64(1); i <= 50; i++ {
			k.TickTo(i)
			time.Sleep(time.Millisecond)
		}
	}()
	select {
	case tick := <-ch:
		if tick == 0 {
			t.Fatal("expected a positive tick")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

type taskFunc func(ctx *Context)

func (f taskFunc) Run(ctx *Context) { f(ctx) }

func TestAddTaskRecoversPanic(t *testing.T) {
	got := make(chan PanicInfo, 1)
	SetPanicHandler(func(info PanicInfo) { got <- info })
	defer SetPanicHandler(nil)

	k := New()
	k.AddTask(taskFunc(func(ctx *Context) {}))
	id := k.AddTask(taskFunc(func(ctx *Context) { panic("boom") }))
	k.Wait()

	select {
	case info := <-got:
		if info.TaskID != id || info.Value != "boom" {
			t.Fatalf("unexpected panic info: task=%d value=%v", info.TaskID, info.Value)
		}
		if len(info.Stack) == 0 {
			t.Fatal("expected a stack trace")
		}
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}
	if !InPanicMode() {
		t.Fatal("expected panic mode")
	}
}

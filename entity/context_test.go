package entity

import (
	"context"
	"testing"
)

type contextTestState struct {
	Value int `json:"value"`
}

func newTestContext(t *testing.T, msg RequestMessage, isReplaying, isNewlyConstructed bool, initial contextTestState) *Context[contextTestState] {
	t.Helper()
	self := EntityId{ClassName: "Counter", Key: "a"}
	return newContext[contextTestState](context.Background(), self, msg, isReplaying, isNewlyConstructed, initial)
}

func TestContext_GetSetState(t *testing.T) {
	c := newTestContext(t, RequestMessage{Operation: "add"}, false, false, contextTestState{Value: 5})

	if got := c.GetState().Get().Value; got != 5 {
		t.Fatalf("initial Get().Value = %d, want 5", got)
	}

	c.GetState().Set(contextTestState{Value: 9})
	if got := c.GetState().Get().Value; got != 9 {
		t.Fatalf("Get().Value after Set = %d, want 9", got)
	}
}

func TestContext_Accessors(t *testing.T) {
	msg := RequestMessage{Operation: "add", Input: `5`}
	c := newTestContext(t, msg, true, true, contextTestState{})

	if c.OperationName() != "add" {
		t.Errorf("OperationName() = %q, want %q", c.OperationName(), "add")
	}
	if c.Key() != "a" {
		t.Errorf("Key() = %q, want %q", c.Key(), "a")
	}
	if c.Self() != (EntityId{ClassName: "Counter", Key: "a"}) {
		t.Errorf("Self() = %+v, want Counter/a", c.Self())
	}
	if !c.IsReplaying() {
		t.Error("expected IsReplaying() true")
	}
	if !c.IsNewlyConstructed() {
		t.Error("expected IsNewlyConstructed() true")
	}
	if c.Context() == nil {
		t.Error("expected non-nil underlying context.Context")
	}
}

func TestContext_GetOperationContent(t *testing.T) {
	t.Run("decodes JSON input", func(t *testing.T) {
		c := newTestContext(t, RequestMessage{Input: `42`}, false, false, contextTestState{})
		var delta int
		if err := c.GetOperationContent(&delta); err != nil {
			t.Fatalf("GetOperationContent: %v", err)
		}
		if delta != 42 {
			t.Errorf("delta = %d, want 42", delta)
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		c := newTestContext(t, RequestMessage{Input: ""}, false, false, contextTestState{})
		var delta int
		if err := c.GetOperationContent(&delta); err != nil {
			t.Fatalf("GetOperationContent: %v", err)
		}
		if delta != 0 {
			t.Errorf("delta = %d, want 0", delta)
		}
	})
}

func TestContext_Return(t *testing.T) {
	c := newTestContext(t, RequestMessage{}, false, false, contextTestState{})
	if err := c.Return(7); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if !c.hasResult {
		t.Fatal("expected hasResult true after Return")
	}
	if c.result != "7" {
		t.Errorf("result = %q, want %q", c.result, "7")
	}
}

func TestContext_DestructOnExit(t *testing.T) {
	c := newTestContext(t, RequestMessage{}, false, false, contextTestState{})
	if c.destructOnExit {
		t.Fatal("expected destructOnExit false before call")
	}
	c.DestructOnExit()
	if !c.destructOnExit {
		t.Fatal("expected destructOnExit true after call")
	}
}

func TestContext_SignalEntity(t *testing.T) {
	c := newTestContext(t, RequestMessage{}, false, false, contextTestState{})
	target := EntityId{ClassName: "Counter", Key: "b"}

	if err := c.SignalEntity(target, "add", 3); err != nil {
		t.Fatalf("SignalEntity: %v", err)
	}
	if len(c.signals) != 1 {
		t.Fatalf("len(signals) = %d, want 1", len(c.signals))
	}
	sig := c.signals[0]
	if sig.target != target || sig.operation != "add" || sig.input != "3" {
		t.Errorf("signal = %+v, want target=%+v operation=add input=3", sig, target)
	}
}

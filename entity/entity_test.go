package entity

import "testing"

func TestEntityId_String(t *testing.T) {
	tests := []struct {
		name string
		id   EntityId
		want string
	}{
		{"simple", EntityId{ClassName: "Counter", Key: "a"}, "Counter/a"},
		{"empty key", EntityId{ClassName: "Counter", Key: ""}, "Counter/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntityId_Less(t *testing.T) {
	t.Run("class name differs", func(t *testing.T) {
		a := EntityId{ClassName: "Alpha", Key: "z"}
		b := EntityId{ClassName: "Beta", Key: "a"}
		if !a.Less(b) {
			t.Errorf("expected Alpha/z < Beta/a")
		}
		if b.Less(a) {
			t.Errorf("expected Beta/a not < Alpha/z")
		}
	})

	t.Run("class name equal, key differs", func(t *testing.T) {
		a := EntityId{ClassName: "Counter", Key: "a"}
		b := EntityId{ClassName: "Counter", Key: "b"}
		if !a.Less(b) {
			t.Errorf("expected Counter/a < Counter/b")
		}
	})

	t.Run("equal ids", func(t *testing.T) {
		a := EntityId{ClassName: "Counter", Key: "a"}
		if a.Less(a) {
			t.Errorf("expected id not less than itself")
		}
	})
}

func TestSchedulerInstanceID_RoundTrip(t *testing.T) {
	tests := []EntityId{
		{ClassName: "Counter", Key: "simple"},
		{ClassName: "Counter", Key: ""},
		{ClassName: "My/Class", Key: "a/b/c"},
		{ClassName: "100% sure", Key: "50% off"},
		{ClassName: "", Key: ""},
	}
	for _, id := range tests {
		t.Run(id.String(), func(t *testing.T) {
			encoded := NewSchedulerInstanceID(id)
			decoded, err := ParseSchedulerInstanceID(encoded)
			if err != nil {
				t.Fatalf("ParseSchedulerInstanceID(%q): %v", encoded, err)
			}
			if decoded != id {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, id)
			}
		})
	}
}

func TestParseSchedulerInstanceID_Malformed(t *testing.T) {
	t.Run("missing prefix", func(t *testing.T) {
		if _, err := ParseSchedulerInstanceID("Counter/a"); err == nil {
			t.Error("expected error for missing prefix")
		}
	})

	t.Run("missing separator", func(t *testing.T) {
		if _, err := ParseSchedulerInstanceID(instanceIDPrefix + "no-separator"); err == nil {
			t.Error("expected error for missing separator")
		}
	})
}

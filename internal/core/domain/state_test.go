package domain

import (
	"errors"
	"testing"
)

func TestState_DataOperations(t *testing.T) {
	s := NewState()

	if got := s.Get("missing", "def"); got != "def" {
		t.Errorf("Get(missing) = %v, want def", got)
	}

	s.Set("a", 1)
	s.Set("b", "x")
	if !s.Has("a") || s.Count() != 2 {
		t.Errorf("Has(a)=%v Count()=%d", s.Has("a"), s.Count())
	}

	snap := s.Snapshot()
	snap["c"] = true
	if s.Has("c") {
		t.Error("Snapshot() is not a copy")
	}

	s.Remove("a")
	if s.Has("a") {
		t.Error("Has(a) after Remove")
	}
	s.Remove("never-set")
}

func TestState_Flash(t *testing.T) {
	s := NewState()
	s.Set("user", "u1")
	s.PutFlash("msg", "ok")

	if !s.Has("msg") {
		t.Error("Has() should see flash values")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, flash values are not counted", s.Count())
	}
	if got := s.Get("msg", nil); got != nil {
		t.Errorf("Get() returned flash value %v", got)
	}

	v, ok := s.TakeFlash("msg")
	if !ok || v != "ok" {
		t.Fatalf("TakeFlash() = %v, %v", v, ok)
	}
	if s.Flash != nil {
		t.Error("empty flash map should be dropped")
	}
	if _, ok := s.TakeFlash("msg"); ok {
		t.Error("flash value delivered twice")
	}

	// Remove does not touch flash values.
	s.PutFlash("keep", 1)
	s.Remove("keep")
	if !s.Has("keep") {
		t.Error("Remove() deleted a flash value")
	}
}

func TestState_Clear(t *testing.T) {
	s := NewState()
	s.Set("a", 1)
	s.PutFlash("f", 2)
	s.Clear()

	if s.Has("a") || s.Has("f") || s.Count() != 0 {
		t.Error("Clear() left values")
	}
}

func TestState_EncodeDecode(t *testing.T) {
	s := NewState()
	s.Set("int", 42)
	s.Set("float", 1.5)
	s.Set("nested", map[string]any{"n": 7, "list": []any{1, "two"}})
	s.PutFlash("msg", "ok")

	payload, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := DecodeState(payload)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if got.Get("int", nil) != int64(42) {
		t.Errorf("int = %#v, want int64(42)", got.Get("int", nil))
	}
	if got.Get("float", nil) != 1.5 {
		t.Errorf("float = %#v", got.Get("float", nil))
	}
	nested := got.Get("nested", nil).(map[string]any)
	if nested["n"] != int64(7) || nested["list"].([]any)[0] != int64(1) {
		t.Errorf("nested = %#v", nested)
	}
	if v, _ := got.TakeFlash("msg"); v != "ok" {
		t.Errorf("flash = %v", v)
	}
}

func TestState_EncodeWithoutFlash(t *testing.T) {
	s := NewState()
	s.Set("a", 1)
	s.PutFlash("f", 1)
	s.TakeFlash("f")

	payload, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"data":{"a":1}}` {
		t.Errorf("payload = %s", payload)
	}

	empty, _ := (&State{}).Encode()
	if string(empty) != `{"data":{}}` {
		t.Errorf("empty payload = %s", empty)
	}
}

func TestDecodeState_Edge(t *testing.T) {
	st, err := DecodeState(nil)
	if err != nil || st.Count() != 0 {
		t.Errorf("DecodeState(nil) = %v, %v", st, err)
	}

	if _, err := DecodeState([]byte("not json")); err == nil {
		t.Error("DecodeState() should reject garbage")
	}
}

func TestState_EncodeUnserializable(t *testing.T) {
	s := NewState()
	s.Set("fn", func() {})

	if _, err := s.Encode(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Encode() error = %v, want ErrInvalidArgument", err)
	}
}

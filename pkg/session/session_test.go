package session

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

func startMem(t *testing.T, writeThrough bool) (*Session, *Driver, *memStore) {
	t.Helper()
	behavior := DefaultConfig().Session
	behavior.WriteThrough = writeThrough
	d, st, _ := memDriver(t, behavior, 0)

	s, err := d.Start(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, d, st
}

func TestSession_FlashScenario(t *testing.T) {
	s, _, _ := startMem(t, false)

	s.Flash("msg", "ok")
	if !s.Has("msg") {
		t.Error("Has(msg) = false after Flash")
	}
	if got := s.GetFlash("msg", nil); got != "ok" {
		t.Errorf("GetFlash(msg) = %v, want ok", got)
	}
	if s.Has("msg") {
		t.Error("Has(msg) = true after consuming GetFlash")
	}
	if got := s.GetFlash("msg", "default"); got != "default" {
		t.Errorf("second GetFlash(msg) = %v, want default", got)
	}
}

func TestSession_FlashOverwrite(t *testing.T) {
	s, _, _ := startMem(t, false)

	s.Flash("msg", "first")
	s.Flash("msg", "second")
	if got := s.GetFlash("msg", nil); got != "second" {
		t.Errorf("GetFlash() = %v, want second", got)
	}
}

func TestSession_GetFlashRemovesOnlyThatKey(t *testing.T) {
	s, _, _ := startMem(t, false)

	s.Flash("a", 1)
	s.Flash("b", 2)
	_ = s.GetFlash("a", nil)

	if s.Has("a") || !s.Has("b") {
		t.Errorf("Has(a)=%v Has(b)=%v, want false true", s.Has("a"), s.Has("b"))
	}
}

func TestSession_EmptyFlashSerializesLikeNoFlash(t *testing.T) {
	ctx := context.Background()
	s, d, st := startMem(t, false)

	s.Set("user_id", 7)
	s.Flash("msg", "ok")
	_ = s.GetFlash("msg", nil)
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	withFlash, _ := st.get("abc")

	plain, _ := d.Start(ctx, "plain")
	plain.Set("user_id", 7)
	if err := plain.Save(ctx); err != nil {
		t.Fatal(err)
	}
	without, _ := st.get("plain")

	if string(withFlash) != string(without) {
		t.Errorf("payloads differ:\n%s\n%s", withFlash, without)
	}
}

func TestSession_DataAPI(t *testing.T) {
	s, _, _ := startMem(t, false)

	if got := s.Get("missing", "def"); got != "def" {
		t.Errorf("Get(missing) = %v, want def", got)
	}

	s.Set("a", 1)
	s.Set("b", "two")
	s.Flash("f", true)

	if !s.Has("a") {
		t.Error("Has(a) = false after Set")
	}
	if got := s.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2 (flash excluded)", got)
	}
	if all := s.All(); len(all) != 2 || all["b"] != "two" {
		t.Errorf("All() = %v", all)
	}

	s.Remove("a")
	if s.Has("a") {
		t.Error("Has(a) = true after Remove")
	}

	s.Clear()
	if s.Count() != 0 || s.Has("b") || s.Has("f") {
		t.Error("Clear() left values behind")
	}
}

func TestSession_PersistAcrossStarts(t *testing.T) {
	ctx := context.Background()
	d := openDriver(t, sqliteConfig(t))

	s, err := d.Start(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsNew() || !domain.IsGeneratedSessionID(s.ID()) {
		t.Fatalf("Start(\"\") id = %q, new = %v", s.ID(), s.IsNew())
	}

	s.Set("user_id", 7)
	s.Set("roles", []any{"admin", "dev"})
	s.Flash("notice", "saved")
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	again, err := d.Start(ctx, s.ID())
	if err != nil {
		t.Fatal(err)
	}
	if again.IsNew() {
		t.Error("IsNew() = true for a stored session")
	}
	if got := again.Get("user_id", nil); got != int64(7) {
		t.Errorf("user_id = %#v, want int64(7)", got)
	}
	if roles, ok := again.Get("roles", nil).([]any); !ok || len(roles) != 2 {
		t.Errorf("roles = %#v", again.Get("roles", nil))
	}
	if got := again.GetFlash("notice", nil); got != "saved" {
		t.Errorf("GetFlash(notice) = %v, want saved", got)
	}
}

func TestSession_DeferredWrite(t *testing.T) {
	ctx := context.Background()
	s, _, st := startMem(t, false)

	s.Set("k", "v")
	if _, ok := st.get("abc"); ok {
		t.Fatal("deferred policy wrote before Save")
	}
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.get("abc"); !ok {
		t.Error("Save() did not persist")
	}
}

func TestSession_WriteThrough(t *testing.T) {
	s, _, st := startMem(t, true)

	s.Set("k", "v")
	if _, ok := st.get("abc"); !ok {
		t.Fatal("write-through did not persist Set")
	}

	s.Flash("msg", "ok")
	before, _ := st.get("abc")
	_ = s.GetFlash("msg", nil)
	after, _ := st.get("abc")
	if string(before) == string(after) {
		t.Error("consuming GetFlash was not committed")
	}

	// A miss does not commit.
	_ = s.GetFlash("absent", nil)
	if again, _ := st.get("abc"); string(again) != string(after) {
		t.Error("GetFlash miss changed the stored payload")
	}
}

func TestSession_WriteThroughFailureKeepsState(t *testing.T) {
	s, _, st := startMem(t, true)
	st.writeErr = errBoom

	s.Set("k", "v")
	if got := s.Get("k", nil); got != "v" {
		t.Errorf("Get(k) = %v, in-memory state must survive a failed commit", got)
	}
}

func TestSession_SaveError(t *testing.T) {
	s, _, st := startMem(t, false)
	st.writeErr = errBoom

	if err := s.Save(context.Background()); !errors.Is(err, ErrStorageIO) {
		t.Errorf("Save() error = %v, want ErrStorageIO", err)
	}
}

func TestSession_UnserializableValue(t *testing.T) {
	s, _, _ := startMem(t, false)
	s.Set("ch", make(chan int))

	if err := s.Save(context.Background()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Save() error = %v, want ErrInvalidArgument", err)
	}
}

func TestSession_Destroy(t *testing.T) {
	ctx := context.Background()
	s, _, st := startMem(t, false)

	s.Set("k", "v")
	_ = s.Save(ctx)

	if err := s.Destroy(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 0 {
		t.Error("Destroy() kept in-memory values")
	}
	if _, ok := st.get("abc"); ok {
		t.Error("Destroy() kept the record")
	}

	// Saving afterwards must not resurrect the record.
	_ = s.Save(ctx)
	if _, ok := st.get("abc"); ok {
		t.Error("Save() after Destroy recreated the record")
	}
}

func TestSession_RegenerateID(t *testing.T) {
	ctx := context.Background()
	s, _, st := startMem(t, false)

	s.Set("user_id", 7)
	_ = s.Save(ctx)

	if err := s.RegenerateID(ctx); err != nil {
		t.Fatalf("RegenerateID() error = %v", err)
	}
	if s.ID() == "abc" || !domain.IsGeneratedSessionID(s.ID()) {
		t.Errorf("ID() = %q after RegenerateID", s.ID())
	}
	if _, ok := st.get("abc"); ok {
		t.Error("old record not destroyed")
	}
	if _, ok := st.get(s.ID()); !ok {
		t.Error("new record not written")
	}
	if got := s.Get("user_id", nil); got != 7 {
		t.Errorf("user_id = %v, data must be kept", got)
	}
}

func TestSession_RegenerateIDFailure(t *testing.T) {
	s, _, st := startMem(t, false)
	st.writeErr = errBoom

	if err := s.RegenerateID(context.Background()); err == nil {
		t.Fatal("RegenerateID() should fail when the write fails")
	}
	if s.ID() != "abc" {
		t.Errorf("ID() = %q, want the old id after a failed regenerate", s.ID())
	}
}

func TestSession_RegenerateIDFailureAfterDestroy(t *testing.T) {
	ctx := context.Background()
	s, _, st := startMem(t, false)

	if err := s.Destroy(ctx); err != nil {
		t.Fatal(err)
	}
	st.writeErr = errBoom
	if err := s.RegenerateID(ctx); err == nil {
		t.Fatal("RegenerateID() should fail when the write fails")
	}

	// The session is still destroyed, so a later Save writes nothing.
	st.writeErr = nil
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := st.get("abc"); ok {
		t.Error("Save() after a failed RegenerateID resurrected the record")
	}
}

func TestStart_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	d, _, _ := memDriver(t, DefaultConfig().Session, 0)

	_ = d.Write(ctx, "abc", []byte("not json"))
	s, err := d.Start(ctx, "abc")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Count() != 0 {
		t.Error("corrupt payload should start empty")
	}
}

func TestStart_ReadError(t *testing.T) {
	d, st, _ := memDriver(t, DefaultConfig().Session, 0)
	st.readErr = errBoom

	if _, err := d.Start(context.Background(), "abc"); !errors.Is(err, ErrStorageIO) {
		t.Errorf("Start() error = %v, want ErrStorageIO", err)
	}
}

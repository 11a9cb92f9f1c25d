package session

import (
	"context"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

// Session is one activation of a session id. It owns the in-memory state
// between Driver.Start and Save or Destroy and is not safe for concurrent
// use.
type Session struct {
	ctx       context.Context
	id        string
	driver    *Driver
	state     *domain.State
	isNew     bool
	destroyed bool
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// IsNew reports whether the session had no stored state when it started.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Get returns the value for key, or def when absent.
func (s *Session) Get(key string, def any) any {
	return s.state.Get(key, def)
}

// Has reports whether key is set as a regular or a flash value.
func (s *Session) Has(key string) bool {
	return s.state.Has(key)
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.state.Set(key, value)
	s.commit("set")
}

// Remove deletes key.
func (s *Session) Remove(key string) {
	s.state.Remove(key)
	s.commit("remove")
}

// Clear drops every regular and flash value.
func (s *Session) Clear() {
	s.state.Clear()
	s.commit("clear")
}

// Count returns the number of regular values.
func (s *Session) Count() int {
	return s.state.Count()
}

// All returns a copy of the regular values.
func (s *Session) All() map[string]any {
	return s.state.Snapshot()
}

// PendingFlash returns a copy of the flash values without consuming them.
func (s *Session) PendingFlash() map[string]any {
	out := make(map[string]any, len(s.state.Flash))
	for k, v := range s.state.Flash {
		out[k] = v
	}
	return out
}

// Flash stores a read-once value, replacing any pending value for key.
func (s *Session) Flash(key string, value any) {
	s.state.PutFlash(key, value)
	s.commit("flash")
}

// GetFlash returns and consumes the flash value for key. When key has no
// pending value, def is returned and the state is untouched.
func (s *Session) GetFlash(key string, def any) any {
	v, ok := s.state.TakeFlash(key)
	if !ok {
		return def
	}
	s.commit("get_flash")
	return v
}

// Save serializes the state and writes it through the driver, refreshing
// the session's last activity. Saving a destroyed session is a no-op.
func (s *Session) Save(ctx context.Context) error {
	if s.destroyed {
		return nil
	}
	payload, err := s.state.Encode()
	if err != nil {
		return err
	}
	if err := s.driver.Write(ctx, s.id, payload); err != nil {
		return err
	}
	s.isNew = false
	return nil
}

// Destroy deletes the stored session and clears the in-memory state.
func (s *Session) Destroy(ctx context.Context) error {
	s.state.Clear()
	s.destroyed = true
	return s.driver.Destroy(ctx, s.id)
}

// RegenerateID moves the session to a freshly generated id. The state is
// written under the new id and the old record is destroyed.
func (s *Session) RegenerateID(ctx context.Context) error {
	newID, err := domain.GenerateSessionID()
	if err != nil {
		return err
	}

	oldID, wasDestroyed := s.id, s.destroyed
	s.id = newID
	s.destroyed = false

	if err := s.Save(ctx); err != nil {
		s.id, s.destroyed = oldID, wasDestroyed
		return err
	}
	if err := s.driver.Destroy(ctx, oldID); err != nil {
		return err
	}

	s.driver.logger.Debug("session id regenerated", "old_session_id", oldID, "new_session_id", newID)
	return nil
}

// commit writes the state immediately under the write-through policy.
// Failures are logged and counted by the driver; the in-memory state is
// kept.
func (s *Session) commit(op string) {
	if !s.driver.behavior.WriteThrough || s.destroyed {
		return
	}
	if err := s.Save(s.ctx); err != nil {
		s.driver.logger.Warn("write-through commit failed", "session_id", s.id, "op", op, "error", err)
	}
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// State is the in-memory bag of values for one active session.
//
// Data holds regular values; Flash holds values pending delivery, each of
// which disappears the first time it is read through TakeFlash. A State is
// not safe for concurrent use.
type State struct {
	Data  map[string]any `json:"data"`
	Flash map[string]any `json:"flash,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Data: make(map[string]any)}
}

// Get returns the value for key, or def when absent.
func (s *State) Get(key string, def any) any {
	if v, ok := s.Data[key]; ok {
		return v
	}
	return def
}

// Has reports whether key is present in either the data or the flash map.
func (s *State) Has(key string) bool {
	if _, ok := s.Data[key]; ok {
		return true
	}
	_, ok := s.Flash[key]
	return ok
}

// Set stores value under key.
func (s *State) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Remove deletes key from the data map. Flash values are untouched.
func (s *State) Remove(key string) {
	delete(s.Data, key)
}

// Clear drops every data and flash value.
func (s *State) Clear() {
	s.Data = make(map[string]any)
	s.Flash = nil
}

// Count returns the number of regular keys. Flash values are not counted.
func (s *State) Count() int {
	return len(s.Data)
}

// PutFlash stores a flash value, overwriting any pending value for key.
func (s *State) PutFlash(key string, value any) {
	if s.Flash == nil {
		s.Flash = make(map[string]any)
	}
	s.Flash[key] = value
}

// TakeFlash returns and removes the flash value for key. When the flash map
// becomes empty it is dropped, so the encoded state matches one that never
// held flash data. The second return value reports whether key was present.
func (s *State) TakeFlash(key string) (any, bool) {
	v, ok := s.Flash[key]
	if !ok {
		return nil, false
	}
	delete(s.Flash, key)
	if len(s.Flash) == 0 {
		s.Flash = nil
	}
	return v, true
}

// Snapshot returns a shallow copy of the data map.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		out[k] = v
	}
	return out
}

// Encode serializes the state into the session payload.
func (s *State) Encode() ([]byte, error) {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	out, err := json.Marshal(State{Data: data, Flash: s.Flash})
	if err != nil {
		return nil, ErrInvalidArgument.WithDetails("session value is not serializable").WithCause(err)
	}
	return out, nil
}

// DecodeState rebuilds a state from a payload. An empty payload yields an
// empty state. Integral JSON numbers decode to int64, others to float64.
func DecodeState(payload []byte) (*State, error) {
	st := NewState()
	if len(bytes.TrimSpace(payload)) == 0 {
		return st, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw State
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}

	for k, v := range raw.Data {
		st.Data[k] = normalizeNumbers(v)
	}
	if len(raw.Flash) > 0 {
		st.Flash = make(map[string]any, len(raw.Flash))
		for k, v := range raw.Flash {
			st.Flash[k] = normalizeNumbers(v)
		}
	}
	return st, nil
}

// normalizeNumbers walks a decoded JSON value replacing json.Number.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return t.String()
		}
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}

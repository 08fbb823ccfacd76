package prefs

import (
	"fmt"
	"os"
	"sync"
)

// Bridge exposes the typed PreferenceSet through the generic string-keyed
// get/put surface the host UI expects.
//
// Unknown keys are tolerated in both directions: a get returns the
// caller's default and a put is a silent no-op. This lets a host UI
// schema reference more keys than this version of the bridge understands,
// and vice versa.
//
// Every successful put is written through to the backend immediately;
// there is no separate save step. The mutex makes each put atomic with
// respect to concurrent gets.
type Bridge struct {
	mu      sync.Mutex
	set     PreferenceSet
	backend Backend
}

// NewBridge builds a bridge over backend, populating the preference set
// from stored values on top of defaults. Stored values that fail to
// decode (unknown enum token, unreadable bool) leave the default in
// place; they are never an error.
func NewBridge(backend Backend) *Bridge {
	set := Defaults()
	for _, s := range specs {
		switch s.kind {
		case kBool:
			v, ok, err := backend.GetBool(s.key)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] could not read preference %s: %v. Using default value.\n", s.key, err)
				continue
			}
			if ok {
				s.setBool(&set, v)
			}
		case kString:
			v, ok, err := backend.GetString(s.key)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] could not read preference %s: %v. Using default value.\n", s.key, err)
				continue
			}
			if ok {
				// setString no-ops on tokens this version does not know.
				s.setString(&set, v)
			}
		}
	}
	return &Bridge{set: set, backend: backend}
}

// Snapshot returns a copy of the current preference set.
func (b *Bridge) Snapshot() PreferenceSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.set
	if b.set.Bitrate != nil {
		v := *b.set.Bitrate
		set.Bitrate = &v
	}
	return set
}

// GetBool returns the value behind a boolean-backed key, or def if the
// key is not one the bridge understands.
func (b *Bridge) GetBool(key string, def bool) bool {
	s := lookup(key, kBool)
	if s == nil {
		return def
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return s.getBool(&b.set)
}

// PutBool sets a boolean-backed key and persists it. Unknown keys are a
// no-op. The only error is a backend write failure; retry by calling
// again.
func (b *Bridge) PutBool(key string, v bool) error {
	s := lookup(key, kBool)
	if s == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s.setBool(&b.set, v)
	if err := b.backend.SetBool(key, v); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// GetString returns the codec-encoded value behind a string-backed key
// (enum token, bitrate string), or def if the key is unknown.
func (b *Bridge) GetString(key string, def string) string {
	s := lookup(key, kString)
	if s == nil {
		return def
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return s.getString(&b.set)
}

// PutString decodes v through the key's codec and persists the result.
// Unknown keys are a no-op, and so is an unrecognized enum token: the
// field keeps its previous value. The persisted form is the field's
// canonical encoding, not the raw input.
func (b *Bridge) PutString(key, v string) error {
	s := lookup(key, kString)
	if s == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s.setString(&b.set, v)
	if err := b.backend.SetString(key, s.getString(&b.set)); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// apply runs fn on the preference set under the bridge lock and persists
// the keys it names. Used by the serializer so each imported field is
// durable the moment it is applied.
func (b *Bridge) apply(fn func(p *PreferenceSet), keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.set)
	for _, key := range keys {
		s := lookup(key, kBool)
		if s != nil {
			if err := b.backend.SetBool(key, s.getBool(&b.set)); err != nil {
				return fmt.Errorf("persisting %s: %w", key, err)
			}
			continue
		}
		if s = lookup(key, kString); s != nil {
			if err := b.backend.SetString(key, s.getString(&b.set)); err != nil {
				return fmt.Errorf("persisting %s: %w", key, err)
			}
		}
	}
	return nil
}

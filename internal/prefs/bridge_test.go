package prefs

import (
	"path/filepath"
	"testing"
)

// TestBridgeDefaults verifies a bridge over an empty backend serves the
// default preference set.
func TestBridgeDefaults(t *testing.T) {
	b := NewBridge(NewMemoryBackend())

	if b.GetBool(KeyLogVerbose, true) != false {
		t.Error("LogVerbose default should be false")
	}
	if b.GetBool(KeySwapCrossMoon, true) != false {
		t.Error("SwapCrossMoon default should be false")
	}
	if got := b.GetString(KeyResolution, "x"); got != "720p" {
		t.Errorf("resolution default = %q, want 720p", got)
	}
	if got := b.GetString(KeyFPS, "x"); got != "60" {
		t.Errorf("fps default = %q, want 60", got)
	}
	if got := b.GetString(KeyBitrate, "x"); got != "" {
		t.Errorf("bitrate default = %q, want empty (automatic)", got)
	}
}

// TestBridgePutGet verifies put followed by get returns the canonical
// decoded value for every registered key.
func TestBridgePutGet(t *testing.T) {
	b := NewBridge(NewMemoryBackend())

	if err := b.PutBool(KeyLogVerbose, true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if !b.GetBool(KeyLogVerbose, false) {
		t.Error("LogVerbose should be true after put")
	}

	if err := b.PutString(KeyResolution, "720p"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got := b.GetString(KeyResolution, ""); got != "720p" {
		t.Errorf("resolution = %q, want 720p", got)
	}

	if err := b.PutString(KeyBitrate, "8000"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got := b.GetString(KeyBitrate, ""); got != "8000" {
		t.Errorf("bitrate = %q, want 8000", got)
	}
	// Empty string clears the override back to automatic.
	if err := b.PutString(KeyBitrate, ""); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got := b.GetString(KeyBitrate, "x"); got != "" {
		t.Errorf("bitrate = %q, want empty after clearing", got)
	}
}

// TestBridgeUnknownToken verifies an unrecognized enum token keeps the
// previous value instead of resetting the field or raising.
func TestBridgeUnknownToken(t *testing.T) {
	b := NewBridge(NewMemoryBackend())

	if err := b.PutString(KeyResolution, "1080p"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := b.PutString(KeyResolution, "9999p"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if got := b.GetString(KeyResolution, ""); got != "1080p" {
		t.Errorf("resolution = %q, want previous value 1080p", got)
	}
}

// TestBridgeUnknownKey verifies unknown keys default on get and no-op
// on put, supporting host UI schemas that probe keys speculatively.
func TestBridgeUnknownKey(t *testing.T) {
	b := NewBridge(NewMemoryBackend())
	before := b.Snapshot()

	if got := b.GetBool("no_such_key", true); got != true {
		t.Error("GetBool on unknown key should return the default")
	}
	if got := b.GetString("no_such_key", "fallback"); got != "fallback" {
		t.Errorf("GetString on unknown key = %q, want fallback", got)
	}
	// Kind mismatch counts as unknown too.
	if got := b.GetString(KeyLogVerbose, "fallback"); got != "fallback" {
		t.Errorf("GetString on bool key = %q, want fallback", got)
	}

	if err := b.PutBool("no_such_key", true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if err := b.PutString("no_such_key", "1080p"); err != nil {
		t.Fatalf("PutString: %v", err)
	}

	after := b.Snapshot()
	if !equalSets(before, after) {
		t.Errorf("preference set changed by unknown-key puts: %+v -> %+v", before, after)
	}
}

// TestBridgeWriteThrough verifies each put lands in the backing file
// immediately and a new bridge over the same file sees it.
func TestBridgeWriteThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	b := NewBridge(NewFileBackend(path))
	if err := b.PutString(KeyResolution, "1440p"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := b.PutBool(KeySwapCrossMoon, true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if err := b.PutString(KeyBitrate, "15000"); err != nil {
		t.Fatalf("PutString: %v", err)
	}

	// No explicit save; the puts above must be durable on their own.
	reloaded := NewBridge(NewFileBackend(path))
	if got := reloaded.GetString(KeyResolution, ""); got != "1440p" {
		t.Errorf("reloaded resolution = %q, want 1440p", got)
	}
	if !reloaded.GetBool(KeySwapCrossMoon, false) {
		t.Error("reloaded SwapCrossMoon should be true")
	}
	if got := reloaded.GetString(KeyBitrate, ""); got != "15000" {
		t.Errorf("reloaded bitrate = %q, want 15000", got)
	}
}

// TestBridgeLoadBadStoredToken verifies a stored token from a newer or
// corrupted install falls back to the default without error.
func TestBridgeLoadBadStoredToken(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.SetString(KeyResolution, "8640p"); err != nil {
		t.Fatal(err)
	}
	if err := backend.SetString(KeyFPS, "120"); err != nil {
		t.Fatal(err)
	}

	b := NewBridge(backend)
	if got := b.GetString(KeyResolution, ""); got != "720p" {
		t.Errorf("resolution = %q, want default 720p for unknown stored token", got)
	}
	if got := b.GetString(KeyFPS, ""); got != "120" {
		t.Errorf("fps = %q, want stored 120", got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		key  string
		kind string
		ok   bool
	}{
		{KeyLogVerbose, "bool", true},
		{KeySwapCrossMoon, "bool", true},
		{KeyResolution, "string", true},
		{KeyFPS, "string", true},
		{KeyBitrate, "string", true},
		{"no_such_key", "", false},
	}
	for _, c := range cases {
		kind, ok := KindOf(c.key)
		if kind != c.kind || ok != c.ok {
			t.Errorf("KindOf(%q) = %q, %v; want %q, %v", c.key, kind, ok, c.kind, c.ok)
		}
	}

	if got := len(Keys()); got != 5 {
		t.Errorf("len(Keys()) = %d, want 5", got)
	}
}

func equalSets(a, b PreferenceSet) bool {
	if a.LogVerbose != b.LogVerbose || a.SwapCrossMoon != b.SwapCrossMoon ||
		a.Resolution != b.Resolution || a.FPS != b.FPS {
		return false
	}
	if (a.Bitrate == nil) != (b.Bitrate == nil) {
		return false
	}
	return a.Bitrate == nil || *a.Bitrate == *b.Bitrate
}

package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrMalformedDocument marks an import input that failed structural
// validation. The preference set is untouched when this is returned.
var ErrMalformedDocument = errors.New("malformed settings document")

const maxDocumentSize = 1 << 20 // 1MB; a settings document is tiny

// document is the portable export form of a PreferenceSet. Enum fields
// carry persistence tokens; a null bitrate means automatic.
type document struct {
	LogVerbose    bool   `json:"logVerbose"`
	SwapCrossMoon bool   `json:"swapCrossMoon"`
	Resolution    string `json:"resolution"`
	FPS           string `json:"fps"`
	Bitrate       *int   `json:"bitrate"`
}

var documentKeys = []string{"logVerbose", "swapCrossMoon", "resolution", "fps", "bitrate"}

// ImportSummary names fields that a structurally valid import skipped
// because their value was not recognized (e.g. an enum token from a newer
// version). Advisory only; a skip is not a failure.
type ImportSummary struct {
	Skipped []string `json:"skipped,omitempty"`
}

// Serializer turns the full preference set into a portable JSON document
// and applies such a document back onto it. Export and import are single
// logical operations: the op mutex keeps two of them from interleaving
// on the same preference set.
type Serializer struct {
	opMu   sync.Mutex
	bridge *Bridge
}

func NewSerializer(b *Bridge) *Serializer {
	return &Serializer{bridge: b}
}

// Export renders the current preference set as a JSON document. It is a
// pure read; the set is not modified.
func (s *Serializer) Export() ([]byte, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.export()
}

func (s *Serializer) export() ([]byte, error) {
	set := s.bridge.Snapshot()
	doc := document{
		LogVerbose:    set.LogVerbose,
		SwapCrossMoon: set.SwapCrossMoon,
		Resolution:    set.Resolution.Token(),
		FPS:           set.FPS.Token(),
		Bitrate:       set.Bitrate,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ExportToFile writes the export document to path using write-then-publish:
// the bytes go to a temp file in the destination directory and the file is
// renamed into place only once fully written. A cancelled or failed export
// leaves no partial file visible at path.
func (s *Serializer) ExportToFile(ctx context.Context, path string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	data, err := s.export()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}

	// Publish only if the session is still interested.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publishing export: %w", err)
	}
	return nil
}

// Import applies a settings document read from r.
//
// Validation has two layers. Structural problems — unreadable input,
// invalid JSON, a missing key, a value of the wrong JSON type — reject
// the whole document with ErrMalformedDocument and mutate nothing.
// Once the document is structurally valid, fields apply independently:
// an enum token this version does not recognize skips that one field
// (named in the summary) and the rest still land. Each applied field is
// persisted immediately, so cancellation between fields keeps what was
// already committed and leaves the rest at their prior values.
func (s *Serializer) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var summary ImportSummary

	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize))
	if err != nil {
		return summary, fmt.Errorf("reading document: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return summary, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for _, key := range documentKeys {
		if _, ok := raw[key]; !ok {
			return summary, fmt.Errorf("%w: missing key %q", ErrMalformedDocument, key)
		}
	}

	// Decode every field before touching anything, so a type mismatch
	// anywhere rejects the document as a whole.
	var doc document
	if err := unmarshalField(raw["logVerbose"], "logVerbose", &doc.LogVerbose); err != nil {
		return summary, err
	}
	if err := unmarshalField(raw["swapCrossMoon"], "swapCrossMoon", &doc.SwapCrossMoon); err != nil {
		return summary, err
	}
	if err := unmarshalField(raw["resolution"], "resolution", &doc.Resolution); err != nil {
		return summary, err
	}
	if err := unmarshalField(raw["fps"], "fps", &doc.FPS); err != nil {
		return summary, err
	}
	if err := unmarshalField(raw["bitrate"], "bitrate", &doc.Bitrate); err != nil {
		return summary, err
	}

	type fieldApply struct {
		name  string
		apply func() (applied bool, err error)
	}
	fields := []fieldApply{
		{"logVerbose", func() (bool, error) {
			return true, s.bridge.apply(func(p *PreferenceSet) { p.LogVerbose = doc.LogVerbose }, KeyLogVerbose)
		}},
		{"swapCrossMoon", func() (bool, error) {
			return true, s.bridge.apply(func(p *PreferenceSet) { p.SwapCrossMoon = doc.SwapCrossMoon }, KeySwapCrossMoon)
		}},
		{"resolution", func() (bool, error) {
			r, ok := ParseResolution(doc.Resolution)
			if !ok {
				return false, nil
			}
			return true, s.bridge.apply(func(p *PreferenceSet) { p.Resolution = r }, KeyResolution)
		}},
		{"fps", func() (bool, error) {
			f, ok := ParseFrameRate(doc.FPS)
			if !ok {
				return false, nil
			}
			return true, s.bridge.apply(func(p *PreferenceSet) { p.FPS = f }, KeyFPS)
		}},
		{"bitrate", func() (bool, error) {
			return true, s.bridge.apply(func(p *PreferenceSet) { p.Bitrate = doc.Bitrate }, KeyBitrate)
		}},
	}

	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		applied, err := f.apply()
		if err != nil {
			return summary, err
		}
		if !applied {
			summary.Skipped = append(summary.Skipped, f.name)
		}
	}
	return summary, nil
}

func unmarshalField(raw json.RawMessage, name string, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrMalformedDocument, name, err)
	}
	return nil
}

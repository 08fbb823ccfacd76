package prefs

import "testing"

// TestResolutionTokenRoundTrip verifies every resolution survives
// encode/decode through its persistence token.
func TestResolutionTokenRoundTrip(t *testing.T) {
	for _, r := range Resolutions() {
		got, ok := ParseResolution(r.Token())
		if !ok {
			t.Errorf("ParseResolution(%q) not found", r.Token())
			continue
		}
		if got != r {
			t.Errorf("ParseResolution(%q) = %v, want %v", r.Token(), got, r)
		}
	}
}

// TestFrameRateTokenRoundTrip verifies every frame rate survives
// encode/decode through its persistence token.
func TestFrameRateTokenRoundTrip(t *testing.T) {
	for _, f := range FrameRates() {
		got, ok := ParseFrameRate(f.Token())
		if !ok {
			t.Errorf("ParseFrameRate(%q) not found", f.Token())
			continue
		}
		if got != f {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", f.Token(), got, f)
		}
	}
}

// TestParseUnknownToken verifies unknown tokens report ok=false instead
// of resolving to some default variant.
func TestParseUnknownToken(t *testing.T) {
	for _, token := range []string{"", "9999p", "720", "4k", "1080P"} {
		if _, ok := ParseResolution(token); ok {
			t.Errorf("ParseResolution(%q) ok = true, want false", token)
		}
	}
	for _, token := range []string{"", "59.94", "sixty", "-30"} {
		if _, ok := ParseFrameRate(token); ok {
			t.Errorf("ParseFrameRate(%q) ok = true, want false", token)
		}
	}
}

func TestBitrateCodec(t *testing.T) {
	n := 8000
	if got := EncodeBitrate(&n); got != "8000" {
		t.Errorf("EncodeBitrate(8000) = %q, want %q", got, "8000")
	}
	if got := EncodeBitrate(nil); got != "" {
		t.Errorf("EncodeBitrate(nil) = %q, want empty", got)
	}

	if got := DecodeBitrate("8000"); got == nil || *got != 8000 {
		t.Errorf("DecodeBitrate(%q) = %v, want 8000", "8000", got)
	}
	// Empty and unparseable both mean automatic, by contract.
	if got := DecodeBitrate(""); got != nil {
		t.Errorf("DecodeBitrate(\"\") = %v, want nil", *got)
	}
	if got := DecodeBitrate("not-a-number"); got != nil {
		t.Errorf("DecodeBitrate(%q) = %v, want nil", "not-a-number", *got)
	}
}

// TestBitrateRoundTrip checks decode(encode(x)) == x for encoder outputs.
// The converse need not hold: "007" decodes to 7 but re-encodes to "7".
func TestBitrateRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 500, 8000, 150000, -1} {
		v := n
		got := DecodeBitrate(EncodeBitrate(&v))
		if got == nil || *got != n {
			t.Errorf("round trip of %d = %v", n, got)
		}
	}
	if got := DecodeBitrate(EncodeBitrate(nil)); got != nil {
		t.Errorf("round trip of nil = %v", *got)
	}

	if got := DecodeBitrate("007"); got == nil || *got != 7 {
		t.Errorf("DecodeBitrate(%q) = %v, want 7", "007", got)
	}
}

func TestBitrateAuto(t *testing.T) {
	if got := BitrateAuto(Res720p, FPS30); got != 5000 {
		t.Errorf("BitrateAuto(720p, 30) = %d, want 5000", got)
	}
	if got := BitrateAuto(Res1080p, FPS60); got != 20000 {
		t.Errorf("BitrateAuto(1080p, 60) = %d, want 20000", got)
	}

	set := Defaults()
	if got := set.EffectiveBitrate(); got != BitrateAuto(set.Resolution, set.FPS) {
		t.Errorf("EffectiveBitrate() = %d, want automatic", got)
	}
	override := 12345
	set.Bitrate = &override
	if got := set.EffectiveBitrate(); got != 12345 {
		t.Errorf("EffectiveBitrate() = %d, want override 12345", got)
	}
}

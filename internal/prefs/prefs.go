// Package prefs holds the stream preferences for the local client and the
// bridge that exposes them to the host UI as a generic string-keyed store.
package prefs

// Resolution is one of the fixed stream resolutions.
type Resolution int

const (
	Res720p Resolution = iota
	Res1080p
	Res1440p
	Res2160p
)

type resolutionSpec struct {
	token    string
	label    string
	height   int
	autoKbps int // automatic bitrate budget at 30 fps
}

// Order is the order choices are presented in; decoding ignores it.
var resolutionSpecs = []resolutionSpec{
	{token: "720p", label: "720p (HD)", height: 720, autoKbps: 5000},
	{token: "1080p", label: "1080p (Full HD)", height: 1080, autoKbps: 10000},
	{token: "1440p", label: "1440p (QHD)", height: 1440, autoKbps: 20000},
	{token: "2160p", label: "2160p (4K)", height: 2160, autoKbps: 40000},
}

// Token returns the stable string stored in the backend and in exported
// documents. Tokens are append-only: a token is never reused for a
// different resolution in a later version.
func (r Resolution) Token() string { return resolutionSpecs[r].token }

// Label returns the human-readable form shown by the host UI.
func (r Resolution) Label() string { return resolutionSpecs[r].label }

// Height returns the vertical pixel count.
func (r Resolution) Height() int { return resolutionSpecs[r].height }

// Resolutions returns all resolutions in presentation order.
func Resolutions() []Resolution {
	out := make([]Resolution, len(resolutionSpecs))
	for i := range resolutionSpecs {
		out[i] = Resolution(i)
	}
	return out
}

// ParseResolution maps a persistence token back to its resolution.
// Unknown tokens (a newer app version, corrupted storage) return ok=false;
// callers keep the previous value rather than substituting a default.
func ParseResolution(token string) (Resolution, bool) {
	for i, s := range resolutionSpecs {
		if s.token == token {
			return Resolution(i), true
		}
	}
	return 0, false
}

// FrameRate is one of the fixed stream frame rates.
type FrameRate int

const (
	FPS30 FrameRate = iota
	FPS60
	FPS120
)

type frameRateSpec struct {
	token string
	label string
	fps   int
}

var frameRateSpecs = []frameRateSpec{
	{token: "30", label: "30 FPS", fps: 30},
	{token: "60", label: "60 FPS", fps: 60},
	{token: "120", label: "120 FPS", fps: 120},
}

func (f FrameRate) Token() string { return frameRateSpecs[f].token }
func (f FrameRate) Label() string { return frameRateSpecs[f].label }
func (f FrameRate) FPS() int      { return frameRateSpecs[f].fps }

// FrameRates returns all frame rates in presentation order.
func FrameRates() []FrameRate {
	out := make([]FrameRate, len(frameRateSpecs))
	for i := range frameRateSpecs {
		out[i] = FrameRate(i)
	}
	return out
}

// ParseFrameRate maps a persistence token back to its frame rate.
func ParseFrameRate(token string) (FrameRate, bool) {
	for i, s := range frameRateSpecs {
		if s.token == token {
			return FrameRate(i), true
		}
	}
	return 0, false
}

// PreferenceSet is the typed record of all stream settings.
// Bitrate is a kbps override; nil means automatic (see BitrateAuto).
type PreferenceSet struct {
	LogVerbose    bool
	SwapCrossMoon bool
	Resolution    Resolution
	FPS           FrameRate
	Bitrate       *int
}

// Defaults returns the settings used before the user changes anything.
func Defaults() PreferenceSet {
	return PreferenceSet{
		LogVerbose:    false,
		SwapCrossMoon: false,
		Resolution:    Res720p,
		FPS:           FPS60,
		Bitrate:       nil,
	}
}

// BitrateAuto computes the effective kbps used when no override is set.
// Each resolution carries its 30 fps budget in resolutionSpecs; higher
// frame rates scale it up.
func BitrateAuto(r Resolution, f FrameRate) int {
	base := resolutionSpecs[r].autoKbps
	switch f {
	case FPS60:
		return base * 2
	case FPS120:
		return base * 3
	default:
		return base
	}
}

// EffectiveBitrate resolves the override against the automatic value.
func (p PreferenceSet) EffectiveBitrate() int {
	if p.Bitrate != nil {
		return *p.Bitrate
	}
	return BitrateAuto(p.Resolution, p.FPS)
}

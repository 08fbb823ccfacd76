package prefs

// Preference keys as used by the host UI, the backend store, and the
// control API.
const (
	KeyLogVerbose    = "log_verbose"
	KeySwapCrossMoon = "swap_cross_moon"
	KeyResolution    = "resolution"
	KeyFPS           = "fps"
	KeyBitrate       = "bitrate"
)

type keyKind int

const (
	kBool keyKind = iota
	kString
)

// keySpec binds one preference key to its field's typed accessors.
// String-kind keys go through the field's codec, so a set with an
// unrecognized enum token is a no-op that keeps the previous value.
type keySpec struct {
	key  string
	kind keyKind

	getBool func(p *PreferenceSet) bool
	setBool func(p *PreferenceSet, v bool)

	getString func(p *PreferenceSet) string
	setString func(p *PreferenceSet, v string)
}

var specs = []keySpec{
	{
		key: KeyLogVerbose, kind: kBool,
		getBool: func(p *PreferenceSet) bool { return p.LogVerbose },
		setBool: func(p *PreferenceSet, v bool) { p.LogVerbose = v },
	},
	{
		key: KeySwapCrossMoon, kind: kBool,
		getBool: func(p *PreferenceSet) bool { return p.SwapCrossMoon },
		setBool: func(p *PreferenceSet, v bool) { p.SwapCrossMoon = v },
	},
	{
		key: KeyResolution, kind: kString,
		getString: func(p *PreferenceSet) string { return p.Resolution.Token() },
		setString: func(p *PreferenceSet, v string) {
			if r, ok := ParseResolution(v); ok {
				p.Resolution = r
			}
		},
	},
	{
		key: KeyFPS, kind: kString,
		getString: func(p *PreferenceSet) string { return p.FPS.Token() },
		setString: func(p *PreferenceSet, v string) {
			if f, ok := ParseFrameRate(v); ok {
				p.FPS = f
			}
		},
	},
	{
		key: KeyBitrate, kind: kString,
		getString: func(p *PreferenceSet) string { return EncodeBitrate(p.Bitrate) },
		setString: func(p *PreferenceSet, v string) { p.Bitrate = DecodeBitrate(v) },
	},
}

func lookup(key string, kind keyKind) *keySpec {
	for i := range specs {
		if specs[i].key == key && specs[i].kind == kind {
			return &specs[i]
		}
	}
	return nil
}

// Keys returns all preference keys in display order.
func Keys() []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.key
	}
	return out
}

// KindOf reports whether key is a known preference key and whether its
// bridge form is "bool" or "string".
func KindOf(key string) (string, bool) {
	for _, s := range specs {
		if s.key == key {
			if s.kind == kBool {
				return "bool", true
			}
			return "string", true
		}
	}
	return "", false
}

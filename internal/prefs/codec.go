package prefs

import "strconv"

// EncodeBitrate returns the string form of an optional bitrate override:
// empty string for automatic, decimal kbps otherwise.
func EncodeBitrate(kbps *int) string {
	if kbps == nil {
		return ""
	}
	return strconv.Itoa(*kbps)
}

// DecodeBitrate parses the string form of a bitrate override. An empty
// string, or anything that is not an integer, means automatic — that is
// the documented way for a UI text field to clear the override, not an
// error. No range validation happens here; that is the UI's business.
func DecodeBitrate(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

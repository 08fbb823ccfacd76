package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lunalink/lunalink/internal/hostdb"
	"github.com/lunalink/lunalink/internal/prefs"
)

func newTestHandler(t *testing.T) (Deps, http.Handler) {
	t.Helper()
	bridge := prefs.NewBridge(prefs.NewMemoryBackend())
	hosts, err := hostdb.Open(":memory:")
	if err != nil {
		t.Fatalf("opening host store: %v", err)
	}
	t.Cleanup(func() { hosts.Close() })

	deps := Deps{
		Bridge:     bridge,
		Serializer: prefs.NewSerializer(bridge),
		Hosts:      hosts,
	}
	return deps, NewHandler(deps)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetSettings(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(t, h, "GET", "/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["resolution"] != "720p" {
		t.Errorf("resolution = %v, want 720p", doc["resolution"])
	}
	if doc["fps"] != "60" {
		t.Errorf("fps = %v, want 60", doc["fps"])
	}
}

func TestPutAndGetSetting(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(t, h, "PUT", "/settings/resolution", `{"value":"1080p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, "GET", "/settings/resolution", "")
	var got settingValue
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != "1080p" || got.Kind != "string" {
		t.Errorf("got %+v, want value 1080p kind string", got)
	}

	rec = doRequest(t, h, "PUT", "/settings/log_verbose", `{"value":"true"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, h, "GET", "/settings/log_verbose", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != "true" || got.Kind != "bool" {
		t.Errorf("got %+v, want value true kind bool", got)
	}
}

// TestPutUnknownToken verifies the API echoes the prior canonical value
// when the bridge no-ops on an unrecognized enum token.
func TestPutUnknownToken(t *testing.T) {
	_, h := newTestHandler(t)

	doRequest(t, h, "PUT", "/settings/resolution", `{"value":"1440p"}`)
	rec := doRequest(t, h, "PUT", "/settings/resolution", `{"value":"9999p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (token tolerance is not an error)", rec.Code)
	}

	var got settingValue
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != "1440p" {
		t.Errorf("value = %q, want previous 1440p", got.Value)
	}
}

func TestUnknownSettingKey(t *testing.T) {
	_, h := newTestHandler(t)

	if rec := doRequest(t, h, "GET", "/settings/no_such_key", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, h, "PUT", "/settings/no_such_key", `{"value":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT status = %d, want 404", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(t, h, "GET", "/settings/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
}

func TestImportEndpoint(t *testing.T) {
	deps, h := newTestHandler(t)

	body := `{"logVerbose":true,"swapCrossMoon":false,"resolution":"2160p","fps":"30","bitrate":25000}`
	rec := doRequest(t, h, "POST", "/settings/import", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	set := deps.Bridge.Snapshot()
	if set.Resolution != prefs.Res2160p || set.FPS != prefs.FPS30 || !set.LogVerbose {
		t.Errorf("settings after import = %+v", set)
	}
	if set.Bitrate == nil || *set.Bitrate != 25000 {
		t.Errorf("bitrate after import = %v, want 25000", set.Bitrate)
	}
}

func TestImportMalformedEndpoint(t *testing.T) {
	deps, h := newTestHandler(t)
	before := deps.Bridge.Snapshot()

	rec := doRequest(t, h, "POST", "/settings/import", `{"logVerbose":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errBody struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatal(err)
	}
	if errBody.Error.Type != "malformed_document" {
		t.Errorf("error type = %q, want malformed_document", errBody.Error.Type)
	}

	if after := deps.Bridge.Snapshot(); after != before {
		t.Errorf("settings changed by rejected import: %+v -> %+v", before, after)
	}
}

// TestImportSkippedSummary verifies the advisory skip list comes back to
// the HTTP caller.
func TestImportSkippedSummary(t *testing.T) {
	_, h := newTestHandler(t)

	body := `{"logVerbose":false,"swapCrossMoon":false,"resolution":"9999p","fps":"60","bitrate":null}`
	rec := doRequest(t, h, "POST", "/settings/import", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var summary prefs.ImportSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if len(summary.Skipped) != 1 || summary.Skipped[0] != "resolution" {
		t.Errorf("Skipped = %v, want [resolution]", summary.Skipped)
	}
}

func TestHostEndpoints(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(t, h, "GET", "/hosts/count", "")
	var count map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatal(err)
	}
	if count["count"] != 0 {
		t.Errorf("count = %d, want 0", count["count"])
	}

	rec = doRequest(t, h, "POST", "/hosts", `{"name":"den-pc","address":"192.168.1.30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	var host hostdb.Host
	if err := json.Unmarshal(rec.Body.Bytes(), &host); err != nil {
		t.Fatal(err)
	}
	if host.ID == "" {
		t.Error("added host has no ID")
	}

	rec = doRequest(t, h, "GET", "/hosts", "")
	var hosts []hostdb.Host
	if err := json.Unmarshal(rec.Body.Bytes(), &hosts); err != nil {
		t.Fatal(err)
	}
	if len(hosts) != 1 || hosts[0].Name != "den-pc" {
		t.Errorf("hosts = %+v", hosts)
	}

	rec = doRequest(t, h, "DELETE", "/hosts/"+host.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doRequest(t, h, "DELETE", "/hosts/"+host.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAddHostValidation(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/hosts", `{"name":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing address", rec.Code)
	}
}

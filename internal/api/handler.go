// Package api exposes the settings bridge and the host registry over a
// local HTTP control surface plus an MCP stdio server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lunalink/lunalink/internal/hostdb"
	"github.com/lunalink/lunalink/internal/prefs"
)

const maxImportBodySize = 1 << 20 // 1MB

// Deps holds what the handlers need.
type Deps struct {
	Bridge     *prefs.Bridge
	Serializer *prefs.Serializer
	Hosts      *hostdb.Store
}

// NewHandler builds the control API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/settings", handleGetSettings(deps))
	r.Get("/settings/export", handleExport(deps))
	r.Post("/settings/import", handleImport(deps))
	r.Get("/settings/{key}", handleGetSetting(deps))
	r.Put("/settings/{key}", handlePutSetting(deps))
	r.Get("/hosts", handleListHosts(deps))
	r.Post("/hosts", handleAddHost(deps))
	r.Get("/hosts/count", handleHostCount(deps))
	r.Delete("/hosts/{id}", handleRemoveHost(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetSettings returns the full settings state in the same shape as
// an exported document.
func handleGetSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.Serializer.Export()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "rendering settings: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.Serializer.Export()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "exporting settings: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="lunalink-settings.json"`)
		w.Write(data)
	}
}

func handleImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		summary, err := deps.Serializer.Import(r.Context(), r.Body)
		if errors.Is(err, prefs.ErrMalformedDocument) {
			httpError(w, http.StatusBadRequest, "malformed_document", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "importing settings: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

type settingValue struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// bridgeValue reads any known key in its bridge string form.
func bridgeValue(b *prefs.Bridge, key, kind string) string {
	if kind == "bool" {
		return strconv.FormatBool(b.GetBool(key, false))
	}
	return b.GetString(key, "")
}

// handleGetSetting serves one key. The bridge itself tolerates unknown
// keys, but the API layer knows the full key set and 404s instead so
// clients get a real signal.
func handleGetSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		kind, ok := prefs.KindOf(key)
		if !ok {
			httpError(w, http.StatusNotFound, "unknown_key", "unknown setting %q", key)
			return
		}
		writeJSON(w, http.StatusOK, settingValue{Key: key, Kind: kind, Value: bridgeValue(deps.Bridge, key, kind)})
	}
}

func handlePutSetting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		kind, ok := prefs.KindOf(key)
		if !ok {
			httpError(w, http.StatusNotFound, "unknown_key", "unknown setting %q", key)
			return
		}

		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var err error
		if kind == "bool" {
			v, perr := strconv.ParseBool(req.Value)
			if perr != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "setting %q wants a bool, got %q", key, req.Value)
				return
			}
			err = deps.Bridge.PutBool(key, v)
		} else {
			err = deps.Bridge.PutString(key, req.Value)
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "persisting %q: %v", key, err)
			return
		}

		// Echo the canonical value; an unrecognized enum token was a
		// no-op and the previous value comes back.
		writeJSON(w, http.StatusOK, settingValue{Key: key, Kind: kind, Value: bridgeValue(deps.Bridge, key, kind)})
	}
}

func handleListHosts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hosts, err := deps.Hosts.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "listing hosts: %v", err)
			return
		}
		if hosts == nil {
			hosts = []hostdb.Host{}
		}
		writeJSON(w, http.StatusOK, hosts)
	}
}

func handleAddHost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Name == "" || req.Address == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and address are required")
			return
		}

		host, err := deps.Hosts.Add(hostdb.Host{Name: req.Name, Address: req.Address})
		if err != nil {
			httpError(w, http.StatusConflict, "storage_error", "adding host: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, host)
	}
}

func handleHostCount(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Hosts.Count()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "counting hosts: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

func handleRemoveHost(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Hosts.Remove(id)
		if errors.Is(err, hostdb.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no host %q", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "storage_error", "removing host: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"mirror-backend/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// clientInfo assembles per-request client context from headers, with query
// fallbacks for the language
func clientInfo(r *http.Request) services.ClientInfo {
	lang := r.Header.Get("X-Lang")
	if lang == "" {
		lang = r.URL.Query().Get("lang")
	}
	if lang == "" {
		lang = "en"
	}
	lang = strings.ToLower(lang)

	return services.ClientInfo{
		Lang:   lang,
		Region: services.ResolveRegion(r.Header.Get("X-Locale"), r.Header.Get("X-Timezone")),
		Day:    services.NormalizeDay(r.Header.Get("X-Device-Day")),
	}
}

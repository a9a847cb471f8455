package handler

import (
	"net/http"
)

// HealthCheckHandler reports liveness with a plain "OK" body. HEAD requests
// get the status only.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte("OK"))
}

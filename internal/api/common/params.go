package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// UIDParam reads a bundle uid from the route. Uids are non-negative; 0 is the
// official bundle.
func UIDParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	uid, err := strconv.Atoi(raw)
	if err != nil || uid < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return uid, nil
}

// QueryInt reads an integer query parameter within [lo, hi], returning
// fallback when it is absent
func QueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return v, nil
}

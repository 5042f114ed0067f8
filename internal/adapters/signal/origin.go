package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// OriginChecker validates the Origin header of websocket upgrades.
// An empty allowlist or "*" admits every origin.
type OriginChecker struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			oc.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("module", "signal").Str("origin", origin).Msg("ignoring invalid origin")
			continue
		}
		oc.allowed[normalized] = struct{}{}
	}
	if len(oc.allowed) == 0 {
		oc.allowAll = true
	}
	return oc
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// Check is a websocket.Upgrader CheckOrigin func. Requests without an Origin
// header come from non-browser clients and are let through.
func (oc *OriginChecker) Check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if oc.allowAll || header == "" {
		return true
	}
	normalized, ok := normalizeOrigin(header)
	if !ok {
		return false
	}
	_, exists := oc.allowed[normalized]
	if !exists {
		log.Warn().Str("module", "signal").Str("origin", header).Msg("origin rejected")
	}
	return exists
}

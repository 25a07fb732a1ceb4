package middleware

import (
	"net/http"
	"strings"

	"voice_motto/internal/common"

	"golang.org/x/mod/semver"
)

const AppVersionHeader = "app-version"

// RequireAppVersion answers 426 when the client reports a version older than
// minVersion. Requests without the header pass through. An unparseable
// version counts as outdated.
func RequireAppVersion(minVersion string) func(http.Handler) http.Handler {
	minimum := canonicalVersion(minVersion)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(AppVersionHeader))
			if raw == "" || minimum == "" {
				next.ServeHTTP(w, r)
				return
			}
			v := canonicalVersion(raw)
			if v == "" || semver.Compare(v, minimum) < 0 {
				common.RespondWithMessage(w, http.StatusUpgradeRequired, "Please update your client application.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// canonicalVersion accepts "1.2.0" or "v1.2.0" and returns "" if invalid.
func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

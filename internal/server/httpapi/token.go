package httpapi

import (
	"net/http"
	"strings"

	"github.com/reactivities/identity/internal/common"
)

// extractAccessToken reads the bearer token from the Authorization header.
// On the /chat channel, whose handshake cannot set headers, a non-empty
// access_token query parameter takes precedence over the header.
func extractAccessToken(r *http.Request) string {
	if isChatPath(r.URL.Path) {
		if token := r.URL.Query().Get(common.AccessTokenQueryName); token != "" {
			return token
		}
	}
	token, _ := bearerToken(r.Header.Get("Authorization"))
	return token
}

// isChatPath matches /chat and anything below it, by whole path segment.
func isChatPath(path string) bool {
	return path == common.ChatPathPrefix || strings.HasPrefix(path, common.ChatPathPrefix+"/")
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

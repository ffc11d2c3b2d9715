package common

const (
	// AccessTokenQueryName is the query parameter carrying the access token on
	// the real-time channel, whose handshake cannot set headers.
	AccessTokenQueryName = "access_token"

	// RefreshTokenCookieName is the HTTP-only cookie carrying the refresh token.
	RefreshTokenCookieName = "refreshToken"

	// ChatPathPrefix is the route prefix of the real-time channel.
	ChatPathPrefix = "/chat"
)

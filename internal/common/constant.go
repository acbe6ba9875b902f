// Package common contains shared constants and sentinel errors used across
// the portal server and the ops CLI.
package common

// SessionCookieName is the cookie that carries the access token for browser
// sessions. API callers may send the same token as a Bearer header instead.
const SessionCookieName = "portal_session"

// AuthorizationHeaderName and BearerPrefix describe the header form of the
// access token.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// DownloadCacheControl is sent with every file body so that proxies and
// browsers never keep a copy of gated content.
const DownloadCacheControl = "private, no-cache, no-store, must-revalidate"

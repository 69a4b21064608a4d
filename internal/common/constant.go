// Package common contains constants shared by the client packages.
package common

// HTTP header names and values used on outbound API requests.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	RequestIDHeader     = "X-Request-ID"
)

// Keys of the persisted session entries in the metadata store.
const (
	CredentialKey = "access"
	ProfileKey    = "user"
)

// LoginClient identifies this client kind to the login endpoint.
const LoginClient = "web"

// BearerValue formats token as an Authorization header value.
func BearerValue(token string) string {
	return BearerPrefix + token
}

// Package common contains shared constants and sentinel errors used across
// storegate components.
package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the bearer token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is the only accepted authorization scheme. Matching is
	// case-sensitive and includes the trailing space.
	BearerPrefix = "Bearer "
)

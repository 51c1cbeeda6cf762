// Package auth builds request headers for the document API and mints
// development tokens for servers deployed with a shared JWT secret.
package auth

// HeaderAuthorization is the header carrying the bearer token.
const HeaderAuthorization = "Authorization"

// Headers returns the headers every document API request starts from.
// An empty token adds no Authorization header and an empty contentType adds
// no Content-Type header.
func Headers(token, contentType string) map[string]string {
	h := make(map[string]string, 2)
	if token != "" {
		h[HeaderAuthorization] = "Bearer " + token
	}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

package store

import (
	"encoding/base64"
	"strings"

	"golang.org/x/oauth2"
)

// Credential schemes understood by NewCredential.
const (
	SchemeBasic  = "basic"
	SchemeToken  = "token"
	SchemeBearer = "bearer"
)

// NewCredential builds a static token source producing
// "Authorization: <Scheme> <credential>". For basic, token is ignored and the
// username/password pair is encoded. Returns nil when nothing is configured.
func NewCredential(scheme, token, username, password string) (oauth2.TokenSource, error) {
	switch strings.ToLower(scheme) {
	case SchemeBasic, "":
		if username == "" && password == "" {
			if token == "" {
				return nil, nil
			}
			// Already-encoded basic credential.
			return oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Basic", AccessToken: token}), nil
		}
		raw := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		return oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Basic", AccessToken: raw}), nil
	case SchemeToken:
		if token == "" {
			return nil, &ValidationError{Field: "auth.token", Message: "required for token scheme"}
		}
		return oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Token", AccessToken: token}), nil
	case SchemeBearer:
		if token == "" {
			return nil, &ValidationError{Field: "auth.token", Message: "required for bearer scheme"}
		}
		return oauth2.StaticTokenSource(&oauth2.Token{TokenType: "Bearer", AccessToken: token}), nil
	}
	return nil, &ValidationError{Field: "auth.scheme", Message: `must be "basic", "token" or "bearer"`}
}

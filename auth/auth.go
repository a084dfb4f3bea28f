// Package auth verifies the bearer tokens presented during the WebSocket
// handshake.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the verified identity carried by an access token. Immutable for
// the lifetime of the connection.
type Session struct {
	PhoneNumber int64  `json:"phoneNumber"`
	Username    string `json:"username"`
}

type claims struct {
	Session
	jwt.RegisteredClaims
}

// Verifier checks HS256-signed access tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

var ErrNoBearerToken = errors.New("missing bearer token")

// VerifyRequest extracts and validates the Authorization header of an
// upgrade request.
func (v *Verifier) VerifyRequest(r *http.Request) (Session, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Session{}, ErrNoBearerToken
	}
	return v.Verify(token)
}

// Verify validates a raw token string and returns the session claims.
func (v *Verifier) Verify(token string) (Session, error) {
	var c claims
	parsed, err := v.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("parse access token: %w", err)
	}
	if !parsed.Valid {
		return Session{}, errors.New("invalid access token")
	}
	if c.Username == "" {
		return Session{}, errors.New("access token missing username claim")
	}
	return c.Session, nil
}

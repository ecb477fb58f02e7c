package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"activityrewards/native/rewards"
	"activityrewards/observability/logging"
)

// AuthConfig enables HMAC bearer tokens. The token subject is the caller's
// user ID.
type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// Caller is the identity attached to a request. Anonymous callers have an
// empty User.
type Caller struct {
	User          rewards.UserID
	Authenticated bool
}

// Authenticator validates bearer tokens.
type Authenticator struct {
	cfg    AuthConfig
	secret []byte
}

// NewAuthenticator validates cfg.
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	secret := []byte(strings.TrimSpace(cfg.HMACSecret))
	if cfg.Enabled && len(secret) == 0 {
		return nil, errors.New("rpc: auth secret not configured")
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{cfg: cfg, secret: secret}, nil
}

// Enabled reports whether tokens are required for user-scoped methods.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.cfg.Enabled
}

// Identify resolves the caller. With auth disabled every request is anonymous.
// A request without a token is anonymous; a bad token is an error.
func (a *Authenticator) Identify(r *http.Request) (Caller, *RPCError) {
	if !a.Enabled() {
		return Caller{}, nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return Caller{}, nil
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return Caller{}, &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return Caller{}, &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	subject, err := a.subject(token)
	if err != nil {
		return Caller{}, &RPCError{Code: codeUnauthorized, Message: "invalid token", Data: err.Error()}
	}
	return Caller{User: rewards.UserID(subject), Authenticated: true}, nil
}

func (a *Authenticator) subject(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token invalid")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// resolveUser picks the user a request acts as. With auth enabled the token
// subject wins and a conflicting explicit user is rejected.
func (s *Server) resolveUser(caller Caller, requested string) (rewards.UserID, *RPCError) {
	requested = strings.TrimSpace(requested)
	if !s.auth.Enabled() {
		if requested == "" {
			return "", &RPCError{Code: codeInvalidParams, Message: "user is required"}
		}
		return rewards.UserID(requested), nil
	}
	if !caller.Authenticated {
		return "", &RPCError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	if requested != "" && rewards.UserID(requested) != caller.User {
		s.logger.Warn("token subject mismatch",
			logging.MaskField("subject", string(caller.User)),
			logging.MaskField("user", requested))
		return "", &RPCError{Code: codeUnauthorized, Message: fmt.Sprintf("token subject does not match user %q", requested)}
	}
	return caller.User, nil
}

// IssueToken signs a token for subject. Operators use it to mint credentials
// for clients.
func IssueToken(secret, subject, issuer, audience string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("rpc: secret required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("rpc: subject required")
	}
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}

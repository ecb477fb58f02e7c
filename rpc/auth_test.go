package rpc

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := IssueToken(testJWTSecret, subject, "rewards-tests", "", time.Hour, time.Now())
	require.NoError(t, err)
	return signed
}

func TestAuthSubjectIsUser(t *testing.T) {
	srv, _ := newTestServer(t, authConfig())
	handler := srv.Handler()

	_, resp := callRPC(t, handler, token(t, "alice"), "rewards_apply", map[string]interface{}{
		"slot": "alice-slot", "activity": "Check-in", "numTasks": 1, "numUsers": 1,
	})
	var out OutcomeResult
	decodeResult(t, resp, &out)
	require.Equal(t, "alice", out.Owner)

	status, resp := callRPC(t, handler, token(t, "alice"), "rewards_apply", map[string]interface{}{
		"user": "mallory", "activity": "Check-in", "numTasks": 1, "numUsers": 1,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	status, resp = callRPC(t, handler, "", "rewards_apply", map[string]interface{}{
		"user": "alice", "activity": "Check-in", "numTasks": 1, "numUsers": 1,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	status, resp = callRPC(t, handler, token(t, "bob"), "rewards_getEntry", map[string]string{"slot": "alice-slot"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeSlotOwner, resp.Error.Code)

	_, resp = callRPC(t, handler, token(t, "alice"), "rewards_getEntry", map[string]string{"slot": "alice-slot"})
	require.Nil(t, resp.Error)

	// Public methods work without a token.
	status, _ = callRPC(t, handler, "", "rewards_activities")
	require.Equal(t, http.StatusOK, status)
}

func TestAuthSubjectMismatchLogIsMasked(t *testing.T) {
	logs := &bytes.Buffer{}
	cfg := authConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(logs, nil))
	srv, _ := newTestServer(t, cfg)

	status, _ := callRPC(t, srv.Handler(), token(t, "alice"), "rewards_apply", map[string]interface{}{
		"user": "mallory", "activity": "Check-in", "numTasks": 1, "numUsers": 1,
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Contains(t, logs.String(), "token subject mismatch")
	require.Contains(t, logs.String(), "subject=[REDACTED]")
	require.NotContains(t, logs.String(), "alice")
	require.NotContains(t, logs.String(), "mallory")
}

func TestAuthRejectsBadTokens(t *testing.T) {
	srv, _ := newTestServer(t, authConfig())
	handler := srv.Handler()

	forged, err := IssueToken("other-secret", "alice", "rewards-tests", "", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(testJWTSecret, "alice", "rewards-tests", "", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(testJWTSecret, "alice", "someone-else", "", time.Hour, time.Now())
	require.NoError(t, err)

	for name, bad := range map[string]string{"forged": forged, "expired": expired, "issuer": wrongIssuer, "garbage": "abc.def.ghi"} {
		status, resp := callRPC(t, handler, bad, "rewards_activities")
		require.Equal(t, http.StatusUnauthorized, status, name)
		require.Equal(t, codeUnauthorized, resp.Error.Code, name)
	}
}

func TestAuthAudience(t *testing.T) {
	auth, err := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testJWTSecret, Audience: "rewards"})
	require.NoError(t, err)
	good, err := IssueToken(testJWTSecret, "alice", "", "rewards", time.Hour, time.Now())
	require.NoError(t, err)
	subject, err := auth.subject(good)
	require.NoError(t, err)
	require.Equal(t, "alice", subject)

	other, err := IssueToken(testJWTSecret, "alice", "", "elsewhere", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = auth.subject(other)
	require.Error(t, err)
}

func TestAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{Enabled: true})
	require.Error(t, err)
	_, err = IssueToken("", "alice", "", "", 0, time.Now())
	require.Error(t, err)
	_, err = IssueToken("secret", "", "", "", 0, time.Now())
	require.Error(t, err)
}

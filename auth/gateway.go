// Package auth owns the login/logout/session lifecycle and the role
// authorization checks every downstream handler composes with. It is the only
// place that decides whether a request is authenticated; the credentials
// package answers yes/no and nothing else.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/carelink/care-auth-server/credentials"
	"github.com/carelink/care-auth-server/principals"
	"github.com/carelink/care-auth-server/sessions"
)

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 30 * time.Minute

// dummyCredentialHash is verified against on login failures that would
// otherwise skip key derivation (unknown username, corrupt record), so every
// failed login pays the same derivation cost and response timing cannot reveal
// whether a username exists.
var dummyCredentialHash = func() string {
	hash, err := credentials.HashPassword(uuid.New().String())
	if err != nil {
		panic(err)
	}
	return hash
}()

// Deps holds all repository dependencies for the Gateway.
type Deps struct {
	Directory principals.Directory // User directory (durable credential records)
	Sessions  sessions.Store       // Session store (single source of session validity)
}

// Gateway is the session and authorization gateway. Session expiration is
// sliding: every successful CurrentPrincipal resolution pushes the deadline
// out by the configured TTL.
type Gateway struct {
	deps       Deps
	sessionTTL time.Duration
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.nowTime = nowFunc
	}
}

// WithSessionTTL overrides the sliding-expiration window.
func WithSessionTTL(ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		if ttl > 0 {
			g.sessionTTL = ttl
		}
	}
}

// NewGateway initializes a new Gateway with required dependencies.
func NewGateway(deps Deps, options ...GatewayOption) (*Gateway, error) {
	if deps.Directory == nil {
		return nil, errors.New("[NewGateway] Directory is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[NewGateway] Sessions store is required")
	}

	gateway := &Gateway{
		deps:       deps,
		sessionTTL: DefaultSessionTTL,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(gateway)
	}

	return gateway, nil
}

// Login verifies the credentials and, on success, creates a session bound to
// the principal's identifier. An unknown username and a wrong password both
// return InvalidCredentialsErr: callers cannot enumerate accounts.
func (g *Gateway) Login(ctx context.Context, username, password string) (*principals.Principal, string, error) {
	record, err := g.deps.Directory.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, principals.ErrNotFound) {
			credentials.VerifyPassword(password, dummyCredentialHash)
			return nil, "", InvalidCredentialsErr
		}
		return nil, "", errors.Wrap(err, "[Gateway.Login] directory lookup")
	}

	// A hash that does not parse indicates record corruption, not a user
	// error. Log it, but surface the same generic failure at the same cost.
	if !credentials.IsEncodedHash(record.CredentialHash) {
		log.Warn().Int64("principal_id", record.ID).Msg("malformed credential record")
		credentials.VerifyPassword(password, dummyCredentialHash)
		return nil, "", InvalidCredentialsErr
	}

	if !credentials.VerifyPassword(password, record.CredentialHash) {
		return nil, "", InvalidCredentialsErr
	}

	sessionID := uuid.New().String()
	now := g.nowTime()
	if err := g.deps.Sessions.Put(sessionID, sessions.Session{
		ID:          sessionID,
		PrincipalID: record.ID,
		CreatedAt:   now,
		LastSeenAt:  now,
		ExpiresAt:   now.Add(g.sessionTTL),
	}); err != nil {
		return nil, "", errors.Wrap(err, "[Gateway.Login] failed to create session")
	}

	return record.Principal(), sessionID, nil
}

// Logout destroys the session. Logging out twice, or with an unknown session
// ID, is not an error.
func (g *Gateway) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.deps.Sessions.Delete(sessionID); err != nil {
		return errors.Wrap(err, "[Gateway.Logout] sessions.Delete")
	}
	return nil
}

// CurrentPrincipal resolves a session ID to a fresh Principal. The principal
// is rehydrated from the directory on every call, so role or tenant changes
// made after login take effect on the next request. A missing, expired, or
// orphaned session yields UnauthenticatedErr. On success the session deadline
// slides forward by the TTL.
func (g *Gateway) CurrentPrincipal(ctx context.Context, sessionID string) (*principals.Principal, error) {
	if sessionID == "" {
		return nil, UnauthenticatedErr
	}

	session, err := g.deps.Sessions.Get(sessionID)
	if err != nil {
		return nil, UnauthenticatedErr
	}

	now := g.nowTime()
	if session.Expired(now) {
		_ = g.deps.Sessions.Delete(sessionID)
		return nil, UnauthenticatedErr
	}

	record, err := g.deps.Directory.GetByID(ctx, session.PrincipalID)
	if err != nil {
		if errors.Is(err, principals.ErrNotFound) {
			// Account deleted after login: the session is dead.
			_ = g.deps.Sessions.Delete(sessionID)
			return nil, UnauthenticatedErr
		}
		return nil, errors.Wrap(err, "[Gateway.CurrentPrincipal] directory lookup")
	}

	session.LastSeenAt = now
	session.ExpiresAt = now.Add(g.sessionTTL)
	if err := g.deps.Sessions.Put(sessionID, session); err != nil {
		return nil, errors.Wrap(err, "[Gateway.CurrentPrincipal] failed to renew session")
	}

	return record.Principal(), nil
}

// RequireRole resolves the session and checks the principal's role against the
// allowed set. Returns UnauthenticatedErr for anonymous requests and
// ForbiddenErr for authenticated ones with an insufficient role.
func (g *Gateway) RequireRole(ctx context.Context, sessionID string, allowed ...principals.Role) (*principals.Principal, error) {
	principal, err := g.CurrentPrincipal(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, role := range allowed {
		if principal.Role == role {
			return principal, nil
		}
	}
	return nil, ForbiddenErr
}

// Register creates an account with the default role and returns its hash-free
// principal. Role and tenant assignment beyond the default are administrative
// operations on the directory, not part of registration.
func (g *Gateway) Register(ctx context.Context, username, password, name string, tenantID *int64) (*principals.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("[Gateway.Register] username is required")
	}
	if password == "" {
		return nil, EmptyPasswordErr
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.Register] HashPassword")
	}

	record, err := g.deps.Directory.Create(ctx, &principals.Record{
		Username:       username,
		Name:           name,
		Role:           principals.DefaultRole,
		TenantID:       tenantID,
		CredentialHash: hash,
	})
	if err != nil {
		if errors.Is(err, principals.ErrUsernameTaken) {
			return nil, UsernameTakenErr
		}
		return nil, errors.Wrap(err, "[Gateway.Register] directory.Create")
	}

	return record.Principal(), nil
}

// ChangePassword verifies the current password and replaces the credential
// record in full (new salt, new hash) in a single atomic write.
func (g *Gateway) ChangePassword(ctx context.Context, principalID int64, currentPassword, newPassword string) error {
	if newPassword == "" {
		return EmptyPasswordErr
	}

	record, err := g.deps.Directory.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, principals.ErrNotFound) {
			return InvalidCredentialsErr
		}
		return errors.Wrap(err, "[Gateway.ChangePassword] directory lookup")
	}

	if !credentials.VerifyPassword(currentPassword, record.CredentialHash) {
		return InvalidCredentialsErr
	}

	newHash, err := credentials.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Gateway.ChangePassword] HashPassword")
	}

	if err := g.deps.Directory.ReplaceCredential(ctx, principalID, newHash); err != nil {
		return errors.Wrap(err, "[Gateway.ChangePassword] ReplaceCredential")
	}
	return nil
}

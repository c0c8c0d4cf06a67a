package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/care-auth-server/auth"
	"github.com/carelink/care-auth-server/credentials"
	"github.com/carelink/care-auth-server/internal/utils"
	"github.com/carelink/care-auth-server/principals"
	"github.com/carelink/care-auth-server/principals/repofake"
	"github.com/carelink/care-auth-server/sessions"
)

const (
	testUsername = "alice.ward"
	testPassword = "correct horse"
	testTTL      = 30 * time.Minute
)

// testFixture holds all test dependencies
type testFixture struct {
	directory *repofake.FakeDirectory
	store     *sessions.InMemoryStore
	gateway   *auth.Gateway
	now       time.Time
}

// setupTestFixture creates a gateway over fresh in-memory collaborators with a
// controllable clock.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		directory: repofake.NewFakeDirectory(),
		now:       time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	f.store = sessions.NewInMemoryStore(sessions.WithNowTime(f.nowTime))

	gateway, err := auth.NewGateway(
		auth.Deps{Directory: f.directory, Sessions: f.store},
		auth.WithNowTime(f.nowTime),
		auth.WithSessionTTL(testTTL),
	)
	require.NoError(t, err)
	f.gateway = gateway

	return f
}

func (f *testFixture) nowTime() time.Time {
	return f.now
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// createAccount seeds the directory with a hashed credential
func (f *testFixture) createAccount(t *testing.T, username, password string, role principals.Role) *principals.Record {
	t.Helper()

	hash, err := credentials.HashPassword(password)
	require.NoError(t, err)

	record, err := f.directory.Create(context.Background(), &principals.Record{
		Username:       username,
		Name:           "Test Account",
		Role:           role,
		CredentialHash: hash,
	})
	require.NoError(t, err)
	return record
}

func TestNewGatewayRequiresDeps(t *testing.T) {
	_, err := auth.NewGateway(auth.Deps{})
	assert.Error(t, err)

	_, err = auth.NewGateway(auth.Deps{Directory: repofake.NewFakeDirectory()})
	assert.Error(t, err)
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	principal, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	assert.Equal(t, record.ID, principal.ID)
	assert.Equal(t, testUsername, principal.Username)
	assert.Equal(t, principals.RoleCareStaff, principal.Role)

	session, err := f.store.Get(sessionID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, session.PrincipalID)
	assert.Equal(t, f.now.Add(testTTL), session.ExpiresAt)
}

func TestLoginGenericFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	// Unknown username and wrong password must be indistinguishable.
	_, _, unknownUserErr := f.gateway.Login(context.Background(), "nobody", testPassword)
	_, _, wrongPasswordErr := f.gateway.Login(context.Background(), testUsername, "wrong password")

	assert.ErrorIs(t, unknownUserErr, auth.InvalidCredentialsErr)
	assert.ErrorIs(t, wrongPasswordErr, auth.InvalidCredentialsErr)
	assert.Equal(t, unknownUserErr, wrongPasswordErr)
}

func TestLoginMalformedCredentialRecordFailsClosed(t *testing.T) {
	f := setupTestFixture(t)

	record, err := f.directory.Create(context.Background(), &principals.Record{
		Username:       "corrupt.account",
		Role:           principals.RoleCareStaff,
		CredentialHash: "not-a-valid-encoding",
	})
	require.NoError(t, err)
	require.NotZero(t, record.ID)

	_, _, err = f.gateway.Login(context.Background(), "corrupt.account", "any password")
	assert.ErrorIs(t, err, auth.InvalidCredentialsErr)
}

func TestLoginFailureTimingUniform(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, err := f.directory.Create(context.Background(), &principals.Record{
		Username:       "corrupt.account",
		Role:           principals.RoleCareStaff,
		CredentialHash: "not-a-valid-encoding",
	})
	require.NoError(t, err)

	measure := func(username string) time.Duration {
		const runs = 3
		var total time.Duration
		for i := 0; i < runs; i++ {
			start := time.Now()
			_, _, err := f.gateway.Login(context.Background(), username, "wrong password")
			require.ErrorIs(t, err, auth.InvalidCredentialsErr)
			total += time.Since(start)
		}
		return total / runs
	}

	knownUser := measure(testUsername)

	// An unknown username and a corrupt record must pay the same key
	// derivation cost as a real verification, so failure latency cannot
	// reveal whether an account exists.
	assert.Greater(t, measure("no.such.user"), knownUser/3)
	assert.Greater(t, measure("corrupt.account"), knownUser/3)
}

func TestSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	principal, err := f.gateway.CurrentPrincipal(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, principal.ID)

	require.NoError(t, f.gateway.Logout(context.Background(), sessionID))

	_, err = f.gateway.CurrentPrincipal(context.Background(), sessionID)
	assert.ErrorIs(t, err, auth.UnauthenticatedErr)

	// Logging out twice is not an error
	assert.NoError(t, f.gateway.Logout(context.Background(), sessionID))
	assert.NoError(t, f.gateway.Logout(context.Background(), ""))
}

func TestSessionExpiry(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	f.advance(testTTL + time.Minute)

	_, err = f.gateway.CurrentPrincipal(context.Background(), sessionID)
	assert.ErrorIs(t, err, auth.UnauthenticatedErr)
}

func TestSlidingExpiry(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	// Keep the session alive past the original deadline by touching it.
	for i := 0; i < 3; i++ {
		f.advance(testTTL - time.Minute)
		_, err := f.gateway.CurrentPrincipal(context.Background(), sessionID)
		require.NoError(t, err, "request %d within the sliding window must renew the session", i)
	}

	session, err := f.store.Get(sessionID)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(testTTL), session.ExpiresAt)
	assert.Equal(t, f.now, session.LastSeenAt)

	// Once idle past the TTL the session is gone for good.
	f.advance(testTTL + time.Second)
	_, err = f.gateway.CurrentPrincipal(context.Background(), sessionID)
	assert.ErrorIs(t, err, auth.UnauthenticatedErr)
}

func TestCurrentPrincipalRehydratesFromDirectory(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	// Promote the account after login: the next request must see the new role
	// without re-login.
	require.NoError(t, f.directory.SetRole(record.ID, principals.RoleAdmin))

	principal, err := f.gateway.CurrentPrincipal(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, principals.RoleAdmin, principal.Role)
}

func TestCurrentPrincipalDeletedAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	_, sessionID, err := f.gateway.Login(context.Background(), testUsername, testPassword)
	require.NoError(t, err)

	// Simulate account deletion by pointing the session at a missing ID.
	session, err := f.store.Get(sessionID)
	require.NoError(t, err)
	session.PrincipalID = 9999
	require.NoError(t, f.store.Put(sessionID, session))

	_, err = f.gateway.CurrentPrincipal(context.Background(), sessionID)
	assert.ErrorIs(t, err, auth.UnauthenticatedErr)
}

func TestRequireRole(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, "staff.member", testPassword, principals.RoleCareStaff)
	f.createAccount(t, "unit.manager", testPassword, principals.RoleAdmin)

	_, staffSession, err := f.gateway.Login(context.Background(), "staff.member", testPassword)
	require.NoError(t, err)
	_, adminSession, err := f.gateway.Login(context.Background(), "unit.manager", testPassword)
	require.NoError(t, err)

	allowed := []principals.Role{principals.RoleAdmin, principals.RoleSuperAdmin}

	_, err = f.gateway.RequireRole(context.Background(), staffSession, allowed...)
	assert.ErrorIs(t, err, auth.ForbiddenErr)

	principal, err := f.gateway.RequireRole(context.Background(), adminSession, allowed...)
	require.NoError(t, err)
	assert.Equal(t, principals.RoleAdmin, principal.Role)

	_, err = f.gateway.RequireRole(context.Background(), "no-such-session", allowed...)
	assert.ErrorIs(t, err, auth.UnauthenticatedErr)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)

	principal, err := f.gateway.Register(context.Background(), "new.staff", testPassword, "New Staff", utils.Ptr(int64(7)))
	require.NoError(t, err)

	assert.Equal(t, principals.RoleCareStaff, principal.Role, "registration assigns the default role")
	assert.Equal(t, int64(7), utils.Value(principal.TenantID))

	_, _, err = f.gateway.Login(context.Background(), "new.staff", testPassword)
	assert.NoError(t, err)

	_, err = f.gateway.Register(context.Background(), "new.staff", "other password", "", nil)
	assert.ErrorIs(t, err, auth.UsernameTakenErr)

	_, err = f.gateway.Register(context.Background(), "", testPassword, "", nil)
	assert.Error(t, err)

	_, err = f.gateway.Register(context.Background(), "empty.password", "", "", nil)
	assert.ErrorIs(t, err, auth.EmptyPasswordErr)
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createAccount(t, testUsername, testPassword, principals.RoleCareStaff)

	err := f.gateway.ChangePassword(context.Background(), record.ID, "wrong current", "NewPassword1")
	assert.ErrorIs(t, err, auth.InvalidCredentialsErr)

	err = f.gateway.ChangePassword(context.Background(), record.ID, testPassword, "NewPassword1")
	require.NoError(t, err)

	// Old password no longer verifies, new one does.
	_, _, err = f.gateway.Login(context.Background(), testUsername, testPassword)
	assert.ErrorIs(t, err, auth.InvalidCredentialsErr)
	_, _, err = f.gateway.Login(context.Background(), testUsername, "NewPassword1")
	assert.NoError(t, err)

	err = f.gateway.ChangePassword(context.Background(), record.ID, "NewPassword1", "")
	assert.ErrorIs(t, err, auth.EmptyPasswordErr)

	err = f.gateway.ChangePassword(context.Background(), 42424242, testPassword, "NewPassword1")
	assert.ErrorIs(t, err, auth.InvalidCredentialsErr)
}

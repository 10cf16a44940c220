package session_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/masterfulhomes/dashwise-go/session"
	"github.com/masterfulhomes/dashwise-go/session/storefakes"
)

func accessTokenWith(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func managerToken(t *testing.T) string {
	t.Helper()
	return accessTokenWith(t, jwtlib.MapClaims{
		"sub":      "user-1",
		"username": "jsmith",
		"role":     "manager",
		"tenant":   "masterful-homes",
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
}

func TestLoginPopulatesSessionAndStorage(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	store := session.NewStore(storage)
	accessToken := managerToken(t)

	require.NoError(t, store.Login(accessToken, "refresh-1", "manager"))

	require.True(t, store.Authenticated())
	require.Equal(t, accessToken, store.AccessToken())
	require.Equal(t, "refresh-1", store.RefreshToken())
	require.Equal(t, "manager", store.Role())

	user := store.User()
	require.NotNil(t, user)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "jsmith", user.Username)
	require.Equal(t, "masterful-homes", user.TenantID)

	// In-memory state and the persisted record were written together.
	record := storage.Stored()
	require.NotNil(t, record)
	require.Equal(t, accessToken, record.AccessToken)
	require.Equal(t, "refresh-1", record.RefreshToken)
	require.Equal(t, "manager", record.Role)
	require.NotNil(t, record.User)
}

func TestLoginSurvivesUndecodableToken(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	store := session.NewStore(storage)

	require.NoError(t, store.Login("opaque-not-a-jwt", "refresh-1", "manager"))

	require.True(t, store.Authenticated())
	require.Equal(t, "manager", store.Role())
	require.Nil(t, store.User(), "profile stays sparse when claims cannot be decoded")
}

func TestLoginRoleFallsBackToClaim(t *testing.T) {
	store := session.NewStore(storefakes.NewFakeStorage())

	require.NoError(t, store.Login(managerToken(t), "refresh-1", ""))
	require.Equal(t, "manager", store.Role())
}

func TestLoginThenRehydrateYieldsIdenticalSession(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	first := session.NewStore(storage)
	accessToken := managerToken(t)
	require.NoError(t, first.Login(accessToken, "refresh-1", "manager"))
	before := first.Snapshot()

	// Simulate a reload: a fresh store over the same storage.
	second := session.NewStore(storage)
	restored, err := second.Rehydrate()
	require.NoError(t, err)
	require.True(t, restored)

	after := second.Snapshot()
	require.Equal(t, before.AccessToken, after.AccessToken)
	require.Equal(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, before.Role, after.Role)
	require.Equal(t, before.User, after.User)
}

func TestRehydrateIgnoresPartialRecords(t *testing.T) {
	partials := []*session.Record{
		{AccessToken: "a"},
		{AccessToken: "a", RefreshToken: "r"},
		{RefreshToken: "r", Role: "manager"},
		{},
	}
	for _, record := range partials {
		storage := storefakes.NewFakeStorage()
		require.NoError(t, storage.Write(record))

		store := session.NewStore(storage)
		restored, err := store.Rehydrate()
		require.NoError(t, err)
		require.False(t, restored, "record %+v must not restore a session", record)
		require.False(t, store.Authenticated())
	}
}

func TestRehydrateEmptyStorage(t *testing.T) {
	store := session.NewStore(storefakes.NewFakeStorage())
	restored, err := store.Rehydrate()
	require.NoError(t, err)
	require.False(t, restored)
	require.False(t, store.Authenticated())
}

func TestLogoutClearsEverythingAndIsIdempotent(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	store := session.NewStore(storage)
	require.NoError(t, store.Login(managerToken(t), "refresh-1", "manager"))

	require.NoError(t, store.Logout())
	require.False(t, store.Authenticated())
	require.Empty(t, store.AccessToken())
	require.Empty(t, store.Role())
	require.Nil(t, store.User())
	require.Nil(t, storage.Stored())

	// Second logout is safe.
	require.NoError(t, store.Logout())
	require.False(t, store.Authenticated())
}

func TestRefreshReplacesTokensAndRederivesProfile(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	store := session.NewStore(storage)
	require.NoError(t, store.Login(managerToken(t), "refresh-1", "manager"))

	newAccess := accessTokenWith(t, jwtlib.MapClaims{
		"sub":      "user-1",
		"username": "jsmith-renamed",
		"role":     "manager",
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	require.NoError(t, store.Refresh(newAccess, "refresh-2"))

	require.Equal(t, newAccess, store.AccessToken())
	require.Equal(t, "refresh-2", store.RefreshToken())
	require.Equal(t, "jsmith-renamed", store.User().Username)

	record := storage.Stored()
	require.Equal(t, newAccess, record.AccessToken)
	require.Equal(t, "refresh-2", record.RefreshToken)
}

func TestRefreshKeepsProfileWhenNewTokenUndecodable(t *testing.T) {
	store := session.NewStore(storefakes.NewFakeStorage())
	require.NoError(t, store.Login(managerToken(t), "refresh-1", "manager"))
	previousUser := store.User()
	require.NotNil(t, previousUser)

	require.NoError(t, store.Refresh("opaque-not-a-jwt", "refresh-2"))

	require.Equal(t, "opaque-not-a-jwt", store.AccessToken())
	require.Equal(t, "refresh-2", store.RefreshToken())
	require.Equal(t, "manager", store.Role(), "role survives a decode failure")
	require.Equal(t, previousUser, store.User(), "profile survives a decode failure")
}

func TestEveryMutationPersists(t *testing.T) {
	storage := storefakes.NewFakeStorage()
	store := session.NewStore(storage)

	require.NoError(t, store.Login(managerToken(t), "refresh-1", "manager"))
	require.Equal(t, 1, storage.Writes)

	require.NoError(t, store.Refresh(managerToken(t), "refresh-2"))
	require.Equal(t, 2, storage.Writes)

	require.NoError(t, store.Logout())
	require.Equal(t, 1, storage.Clears)
}

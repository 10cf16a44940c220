package access_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masterfulhomes/dashwise-go/access"
	"github.com/masterfulhomes/dashwise-go/session"
	"github.com/masterfulhomes/dashwise-go/session/storefakes"
)

func gateWithRole(t *testing.T, role string) *access.Gate {
	t.Helper()
	store := session.NewStore(storefakes.NewFakeStorage())
	if role != "" {
		// Opaque tokens are fine here; the gate only reads role state.
		require.NoError(t, store.Login("access-token", "refresh-token", role))
	}
	return access.NewGate(store)
}

func TestAnonymousAllowedPublicViews(t *testing.T) {
	gate := gateWithRole(t, "")
	for _, destination := range []string{"/", "/login", "/signup", "/about", "/services", "/contact"} {
		result := gate.Decide(destination)
		require.Equal(t, access.Allow, result.Decision, "destination %s", destination)
	}
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	gate := gateWithRole(t, "")
	for _, destination := range []string{"/dashboard/admin", "/installations", "/invoices", "/profile"} {
		result := gate.Decide(destination)
		require.Equal(t, access.RedirectToLogin, result.Decision, "destination %s", destination)
		require.Equal(t, access.LoginPath, result.RedirectTo)
	}
}

func TestTechnicianNeverReachesAdminViews(t *testing.T) {
	gate := gateWithRole(t, "technician")

	for _, destination := range []string{"/dashboard/admin", "/dashboard/admin/users", "/users", "/hr"} {
		result := gate.Decide(destination)
		require.Equal(t, access.RedirectToRoleHome, result.Decision, "destination %s", destination)
		require.Equal(t, "/dashboard/technician", result.RedirectTo)
	}
}

func TestRoleAllowedViews(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		denied  []string
	}{
		{
			role:    "admin",
			allowed: []string{"/dashboard/admin", "/users", "/hr", "/invoices", "/installations"},
		},
		{
			role:    "manager",
			allowed: []string{"/dashboard/manager", "/installations", "/invoices", "/tasks"},
			denied:  []string{"/dashboard/admin", "/users", "/hr"},
		},
		{
			role:    "technician",
			allowed: []string{"/dashboard/technician", "/installations", "/tasks", "/time"},
			denied:  []string{"/invoices", "/customers", "/dashboard/finance"},
		},
		{
			role:    "finance",
			allowed: []string{"/dashboard/finance", "/invoices", "/customers"},
			denied:  []string{"/installations", "/dashboard/admin", "/tasks"},
		},
	}

	for _, tc := range cases {
		gate := gateWithRole(t, tc.role)
		for _, destination := range tc.allowed {
			require.Equal(t, access.Allow, gate.Decide(destination).Decision,
				"%s should reach %s", tc.role, destination)
		}
		for _, destination := range tc.denied {
			require.Equal(t, access.RedirectToRoleHome, gate.Decide(destination).Decision,
				"%s should not reach %s", tc.role, destination)
		}
	}
}

func TestSharedViewsReachableByEveryRole(t *testing.T) {
	for _, role := range []string{"admin", "manager", "technician", "finance"} {
		gate := gateWithRole(t, role)
		require.Equal(t, access.Allow, gate.Decide("/profile").Decision)
		require.Equal(t, access.Allow, gate.Decide("/notifications").Decision)
	}
}

func TestUnknownRoleGetsLeastPrivilege(t *testing.T) {
	gate := gateWithRole(t, "superuser")

	result := gate.Decide("/dashboard/admin")
	require.Equal(t, access.RedirectToRoleHome, result.Decision)
	require.Equal(t, access.LandingPath, result.RedirectTo,
		"an unrecognised role lands on the generic view, never an elevated one")
	require.Equal(t, access.LandingPath, gate.Home())
	require.Empty(t, gate.Label())
}

func TestLogoutTransitionsToAnonymous(t *testing.T) {
	store := session.NewStore(storefakes.NewFakeStorage())
	require.NoError(t, store.Login("access-token", "refresh-token", "manager"))
	gate := access.NewGate(store)

	require.Equal(t, access.Allow, gate.Decide("/installations").Decision)

	require.NoError(t, store.Logout())
	result := gate.Decide("/installations")
	require.Equal(t, access.RedirectToLogin, result.Decision,
		"the gate reads live session state, not a snapshot from construction")
}

func TestPrefixMatchingIsSegmentAware(t *testing.T) {
	gate := gateWithRole(t, "finance")

	// /invoices is allowed, /invoicesarchive is a different route.
	require.Equal(t, access.Allow, gate.Decide("/invoices").Decision)
	require.Equal(t, access.Allow, gate.Decide("/invoices/42").Decision)
	require.Equal(t, access.RedirectToRoleHome, gate.Decide("/invoicesarchive").Decision)
}

func TestCustomPolicyTable(t *testing.T) {
	store := session.NewStore(storefakes.NewFakeStorage())
	require.NoError(t, store.Login("access-token", "refresh-token", "dispatcher"))

	gate := access.NewGate(store, access.WithPolicies(map[string]access.Policy{
		"dispatcher": {Label: "Dispatcher", Home: "/dispatch", Prefixes: []string{"/dispatch", "/installations"}},
	}))

	require.Equal(t, access.Allow, gate.Decide("/dispatch").Decision)
	require.Equal(t, access.Allow, gate.Decide("/installations").Decision)
	require.Equal(t, access.RedirectToRoleHome, gate.Decide("/invoices").Decision)
	require.Equal(t, "/dispatch", gate.Home())
}

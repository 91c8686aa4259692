package service

import (
	"reflect"
	"testing"

	"github.com/petland/petcare-console/internal/core/domain"
)

func entryKeys(entries []domain.NavEntry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestVisibleEntries_PermissionFixture(t *testing.T) {
	entries := []domain.NavEntry{
		{Key: "pets", Permissions: []domain.Permission{domain.PermReadPet}},
		{Key: "invoices", Permissions: []domain.Permission{domain.PermReadInvoice}},
	}

	admin := domain.NewAuthorizer(domain.NewPrincipal("1", "a@example.com", domain.RoleAdmin))
	if got := entryKeys(VisibleEntries(entries, admin)); !reflect.DeepEqual(got, []string{"pets", "invoices"}) {
		t.Fatalf("admin: expected both entries, got %v", got)
	}

	bare := domain.NewAuthorizer(&domain.Principal{ID: "2", Email: "u@example.com", Role: domain.RoleUser, Permissions: domain.PermissionSet{}})
	if got := VisibleEntries(entries, bare); len(got) != 0 {
		t.Fatalf("user without permissions: expected no entries, got %v", entryKeys(got))
	}

	if got := VisibleEntries(entries, domain.Authorizer{}); len(got) != 0 {
		t.Fatalf("no principal: expected no entries, got %v", entryKeys(got))
	}
}

func TestVisibleEntries_PartialPermissions(t *testing.T) {
	entries := []domain.NavEntry{
		{Key: "pets", Permissions: []domain.Permission{domain.PermReadPet}},
		{Key: "invoices", Permissions: []domain.Permission{domain.PermReadInvoice, domain.PermDeleteInvoice}},
	}
	user := domain.NewAuthorizer(domain.NewPrincipal("2", "u@example.com", domain.RoleUser))

	if got := entryKeys(VisibleEntries(entries, user)); !reflect.DeepEqual(got, []string{"pets"}) {
		t.Fatalf("expected only pets, got %v", got)
	}
}

func TestBuildNavigation_PerRole(t *testing.T) {
	tests := []struct {
		role  domain.Role
		title string
		keys  []string
	}{
		{
			role:  domain.RoleAdmin,
			title: "Admin Panel",
			keys:  []string{"dashboard", "users", "employees", "pets", "reservations", "medical_history", "payments", "invoices", "account", "settings"},
		},
		{
			role:  domain.RoleEmployee,
			title: "Employee Panel",
			keys:  []string{"dashboard", "pets", "reservations", "medical_history", "payments", "invoices", "account"},
		},
		{
			role:  domain.RoleUser,
			title: "My Panel",
			keys:  []string{"dashboard", "pets", "medical_history", "invoices", "services", "account"},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			nav := BuildNavigation(domain.NewAuthorizer(domain.NewPrincipal("1", "x@example.com", tt.role)))
			if nav.Title != tt.title {
				t.Fatalf("expected title %q, got %q", tt.title, nav.Title)
			}
			if got := entryKeys(nav.Entries); !reflect.DeepEqual(got, tt.keys) {
				t.Fatalf("expected %v, got %v", tt.keys, got)
			}
		})
	}
}

func TestDefaultNavigation_FollowsRouteTable(t *testing.T) {
	for _, e := range domain.DefaultNavigation {
		if _, ok := domain.RuleFor(e.Route); !ok {
			t.Fatalf("entry %s: route %q is not in the route table", e.Key, e.Route)
		}
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEmployee, domain.RoleUser} {
		a := domain.NewAuthorizer(domain.NewPrincipal("1", "x@example.com", role))
		visible := make(map[string]bool)
		for _, e := range VisibleEntries(domain.DefaultNavigation, a) {
			visible[e.Key] = true
		}
		for _, e := range domain.DefaultNavigation {
			if want := a.HasRouteAccess(e.Route); visible[e.Key] != want {
				t.Errorf("role %s entry %s: visible=%v, route access=%v", role, e.Key, visible[e.Key], want)
			}
		}
	}
}

func TestBuildNavigation_Unauthenticated(t *testing.T) {
	nav := BuildNavigation(domain.Authorizer{})
	if len(nav.Entries) != 0 {
		t.Fatalf("expected no entries, got %v", entryKeys(nav.Entries))
	}
}

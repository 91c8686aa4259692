package service

import "github.com/petland/petcare-console/internal/core/domain"

// VisibleEntries returns the entries the authorizer's principal may see, in
// their declared order. Without a principal the result is empty.
func VisibleEntries(entries []domain.NavEntry, a domain.Authorizer) []domain.NavEntry {
	visible := make([]domain.NavEntry, 0, len(entries))
	if !a.Authenticated() {
		return visible
	}
	for _, e := range entries {
		if entryVisible(e, a) {
			visible = append(visible, e)
		}
	}
	return visible
}

func entryVisible(e domain.NavEntry, a domain.Authorizer) bool {
	if e.Route != "" && !a.HasRouteAccess(e.Route) {
		return false
	}
	return a.HasAllPermissions(e.Permissions...)
}

// BuildNavigation computes the sidebar for the authorizer's principal.
func BuildNavigation(a domain.Authorizer) domain.Navigation {
	return domain.Navigation{
		Title:   panelTitle(a),
		Entries: VisibleEntries(domain.DefaultNavigation, a),
	}
}

func panelTitle(a domain.Authorizer) string {
	switch {
	case a.IsAdmin():
		return "Admin Panel"
	case a.IsEmployee():
		return "Employee Panel"
	default:
		return "My Panel"
	}
}

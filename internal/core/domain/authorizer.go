package domain

// Authorizer answers access questions for one principal snapshot. The zero
// value, like an Authorizer over a nil principal, denies everything.
type Authorizer struct {
	principal *Principal
}

// NewAuthorizer wraps p. p must not be mutated afterwards; pass a clone.
func NewAuthorizer(p *Principal) Authorizer {
	return Authorizer{principal: p}
}

// Principal returns the principal the answers are computed for.
func (a Authorizer) Principal() *Principal { return a.principal }

// Authenticated reports whether there is a principal at all.
func (a Authorizer) Authenticated() bool { return a.principal != nil }

func (a Authorizer) IsAdmin() bool    { return a.hasRole(RoleAdmin) }
func (a Authorizer) IsEmployee() bool { return a.hasRole(RoleEmployee) }
func (a Authorizer) IsUser() bool     { return a.hasRole(RoleUser) }

func (a Authorizer) hasRole(r Role) bool {
	return a.principal != nil && a.principal.Role == r
}

// HasRole reports whether the principal's role is one of roles.
func (a Authorizer) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.hasRole(r) {
			return true
		}
	}
	return false
}

// HasPermission is a set-membership check on the principal's permissions.
func (a Authorizer) HasPermission(p Permission) bool {
	if a.principal == nil {
		return false
	}
	return a.principal.Permissions.Has(p)
}

// HasPermissionToken checks a raw token; unknown tokens are denied.
func (a Authorizer) HasPermissionToken(token string) bool {
	p, ok := ParsePermission(token)
	return ok && a.HasPermission(p)
}

// HasAnyPermission reports whether at least one of perms is held.
func (a Authorizer) HasAnyPermission(perms ...Permission) bool {
	for _, p := range perms {
		if a.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every one of perms is held. It is false
// without a principal, even for an empty list.
func (a Authorizer) HasAllPermissions(perms ...Permission) bool {
	if a.principal == nil {
		return false
	}
	for _, p := range perms {
		if !a.HasPermission(p) {
			return false
		}
	}
	return true
}

// HasRouteAccess evaluates the route table for key. Unconfigured keys are denied.
func (a Authorizer) HasRouteAccess(key RouteKey) bool {
	rule, ok := RuleFor(key)
	if !ok || a.principal == nil {
		return false
	}
	if len(rule.Roles) > 0 && !a.HasRole(rule.Roles...) {
		return false
	}
	return a.HasAllPermissions(rule.Permissions...)
}

// HasRouteAccessKey is HasRouteAccess for a raw key.
func (a Authorizer) HasRouteAccessKey(key string) bool {
	k, ok := ParseRouteKey(key)
	return ok && a.HasRouteAccess(k)
}

// CanAccessResource reports whether action on r is allowed.
func (a Authorizer) CanAccessResource(r Resource, action Action) bool {
	perm, ok := r.Permission(action)
	return ok && a.HasPermission(perm)
}

// AvailableRoutes reports access for every configured route.
func (a Authorizer) AvailableRoutes() map[RouteKey]bool {
	out := make(map[RouteKey]bool, len(AllRoutes))
	for _, k := range AllRoutes {
		out[k] = a.HasRouteAccess(k)
	}
	return out
}

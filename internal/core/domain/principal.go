package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role identifies the kind of account behind a principal.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleUser     Role = "user"
)

// roleAliases maps wire spellings the backend uses onto the closed role set.
var roleAliases = map[string]Role{
	"admin":    RoleAdmin,
	"employee": RoleEmployee,
	"user":     RoleUser,
	"client":   RoleUser,
}

// ParseRole converts a wire role into a Role. Unknown values report false.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleUser:
		return true
	}
	return false
}

// Label is the human-readable role name shown in the sidebar footer.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleEmployee:
		return "Employee"
	default:
		return "User"
	}
}

// Principal is the authenticated identity of the current session.
type Principal struct {
	ID          string        `json:"id"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	Email       string        `json:"email"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Specialty   string        `json:"specialty,omitempty"`
	PhoneNumber int64         `json:"phone_number,omitempty"`
	Address     string        `json:"address,omitempty"`
}

// NewPrincipal builds a principal whose permission set is the role's table
// entry merged with any extra known permissions.
func NewPrincipal(id, email string, role Role, extra ...Permission) *Principal {
	p := &Principal{ID: id, Email: email, Role: role}
	p.Permissions = PermissionsFor(role)
	for _, perm := range extra {
		p.Permissions.Add(perm)
	}
	return p
}

// DisplayName returns "First Last", or the email when no name is known.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// Normalize enforces the role invariant: the permission set always holds
// the role's table entry.
func (p *Principal) Normalize() {
	if p == nil {
		return
	}
	if p.Permissions == nil {
		p.Permissions = PermissionSet{}
	}
	for perm := range PermissionsFor(p.Role) {
		p.Permissions.Add(perm)
	}
}

// Clone returns a deep copy so callers never share the session's permission map.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	c.Permissions = p.Permissions.Clone()
	return &c
}

// ProfileUpdate carries the locally editable profile fields. Nil fields are
// left untouched. Role and permissions are not locally editable.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *int64
	Address     *string
	Specialty   *string
}

// Apply copies the set fields of u onto p.
func (u ProfileUpdate) Apply(p *Principal) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Specialty != nil {
		p.Specialty = *u.Specialty
	}
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.PhoneNumber == nil && u.Address == nil && u.Specialty == nil
}

// PermissionSet is a set of known permissions. It serializes as a sorted list.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from perms.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s.Add(p)
	}
	return s
}

func (s PermissionSet) Add(p Permission) {
	if p.Valid() {
		s[p] = struct{}{}
	}
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Clone() PermissionSet {
	if s == nil {
		return nil
	}
	c := make(PermissionSet, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Sorted returns the permissions in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted permission tokens.
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON keeps only tokens of the closed permission set.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	set := make(PermissionSet, len(tokens))
	for _, t := range tokens {
		if p, ok := ParsePermission(t); ok {
			set.Add(p)
		}
	}
	*s = set
	return nil
}

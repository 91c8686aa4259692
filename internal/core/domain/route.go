package domain

// RouteKey names a dashboard screen.
type RouteKey string

const (
	RouteDashboard      RouteKey = "dashboard"
	RouteAccount        RouteKey = "account"
	RouteUsers          RouteKey = "users"
	RouteEmployees      RouteKey = "employees"
	RoutePets           RouteKey = "pets"
	RouteReservations   RouteKey = "reservations"
	RouteServices       RouteKey = "services"
	RouteMedicalHistory RouteKey = "medical_history"
	RouteInvoices       RouteKey = "invoices"
	RoutePayments       RouteKey = "payments"
	RouteExports        RouteKey = "exports"
	RouteLogs           RouteKey = "logs"
	RouteSettings       RouteKey = "settings"
	RouteAdmin          RouteKey = "admin"
)

// RouteRule is what a principal needs to reach a route. An empty rule admits
// every principal.
type RouteRule struct {
	Permissions []Permission
	Roles       []Role
}

// routeRules is the single source of truth for route access.
var routeRules = map[RouteKey]RouteRule{
	RouteDashboard:      {},
	RouteAccount:        {},
	RouteUsers:          {Roles: []Role{RoleAdmin}, Permissions: []Permission{PermReadUser}},
	RouteEmployees:      {Permissions: []Permission{PermReadEmployee}},
	RoutePets:           {Permissions: []Permission{PermReadPet}},
	RouteReservations:   {Roles: []Role{RoleAdmin, RoleEmployee}, Permissions: []Permission{PermReadReservation}},
	RouteServices:       {Roles: []Role{RoleUser}, Permissions: []Permission{PermReadService}},
	RouteMedicalHistory: {Permissions: []Permission{PermReadMedicalHistory}},
	RouteInvoices:       {Permissions: []Permission{PermReadInvoice}},
	RoutePayments:       {Roles: []Role{RoleAdmin, RoleEmployee}, Permissions: []Permission{PermReadPayment}},
	RouteExports:        {Permissions: []Permission{PermExportData}},
	RouteLogs:           {Permissions: []Permission{PermViewLogs}},
	RouteSettings:       {Permissions: []Permission{PermSystemConfig}},
	RouteAdmin:          {Roles: []Role{RoleAdmin}},
}

// AllRoutes lists every configured route key in a stable order.
var AllRoutes = []RouteKey{
	RouteDashboard, RouteAccount, RouteUsers, RouteEmployees, RoutePets,
	RouteReservations, RouteServices, RouteMedicalHistory, RouteInvoices,
	RoutePayments, RouteExports, RouteLogs, RouteSettings, RouteAdmin,
}

// RuleFor returns the rule for key and whether the key is configured.
func RuleFor(key RouteKey) (RouteRule, bool) {
	r, ok := routeRules[key]
	return r, ok
}

// ParseRouteKey converts a wire route key. Unknown keys report false.
func ParseRouteKey(s string) (RouteKey, bool) {
	k := RouteKey(s)
	_, ok := routeRules[k]
	return k, ok
}

// Resource is a CRUD collection exposed by the PetLand API.
type Resource string

const (
	ResourceUsers          Resource = "users"
	ResourceEmployees      Resource = "employees"
	ResourcePets           Resource = "pets"
	ResourceServices       Resource = "services"
	ResourceReservations   Resource = "reservations"
	ResourceMedicalHistory Resource = "medical_history"
	ResourceInvoices       Resource = "invoices"
	ResourcePayments       Resource = "payments"
	ResourceActivityLogs   Resource = "activity_logs"
)

// Action is a CRUD verb.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// resourceNouns maps CRUD resources onto the noun used in permission tokens.
var resourceNouns = map[Resource]string{
	ResourceUsers:          "user",
	ResourceEmployees:      "employee",
	ResourcePets:           "pet",
	ResourceServices:       "service",
	ResourceReservations:   "reservation",
	ResourceMedicalHistory: "medical_history",
	ResourceInvoices:       "invoice",
	ResourcePayments:       "payment",
}

// AllResources lists the proxied collections.
var AllResources = []Resource{
	ResourceUsers, ResourceEmployees, ResourcePets, ResourceServices,
	ResourceReservations, ResourceMedicalHistory, ResourceInvoices,
	ResourcePayments, ResourceActivityLogs,
}

// ParseResource converts a wire resource name.
func ParseResource(s string) (Resource, bool) {
	r := Resource(s)
	if r == ResourceActivityLogs {
		return r, true
	}
	_, ok := resourceNouns[r]
	return r, ok
}

// Permission returns the permission guarding action on r. Activity logs are
// read-only and guarded by view_logs.
func (r Resource) Permission(a Action) (Permission, bool) {
	if r == ResourceActivityLogs {
		if a == ActionRead {
			return PermViewLogs, true
		}
		return "", false
	}
	noun, ok := resourceNouns[r]
	if !ok {
		return "", false
	}
	return ParsePermission(string(a) + "_" + noun)
}

package domain

// NavEntry is one sidebar link together with what it takes to see it.
type NavEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`

	// Route, when set, must be accessible through the route table.
	Route RouteKey `json:"-"`
	// Permissions must all be held.
	Permissions []Permission `json:"-"`
}

// Navigation is the sidebar computed for one principal.
type Navigation struct {
	Title   string     `json:"title"`
	Entries []NavEntry `json:"entries"`
}

// DefaultNavigation is the dashboard sidebar in display order.
var DefaultNavigation = []NavEntry{
	{Key: "dashboard", Label: "Dashboard", Path: "/home", Route: RouteDashboard},
	{Key: "users", Label: "Users", Path: "/users", Route: RouteUsers},
	{Key: "employees", Label: "Employees", Path: "/employees", Route: RouteEmployees},
	{Key: "pets", Label: "Pets", Path: "/pets", Route: RoutePets},
	{Key: "reservations", Label: "Reservations", Path: "/reservations", Route: RouteReservations},
	{Key: "medical_history", Label: "Medical History", Path: "/medicalhistory", Route: RouteMedicalHistory},
	{Key: "payments", Label: "Payments", Path: "/payments", Route: RoutePayments},
	{Key: "invoices", Label: "Invoices", Path: "/invoices", Route: RouteInvoices},
	{Key: "services", Label: "Services", Path: "/services", Route: RouteServices},
	{Key: "account", Label: "Account", Path: "/account", Route: RouteAccount},
	{Key: "settings", Label: "Settings", Path: "/settings", Route: RouteSettings},
}

package domain

// Permission is a single allowed action, e.g. "create_user".
type Permission string

const (
	PermCreateUser Permission = "create_user"
	PermReadUser   Permission = "read_user"
	PermUpdateUser Permission = "update_user"
	PermDeleteUser Permission = "delete_user"

	PermCreateEmployee Permission = "create_employee"
	PermReadEmployee   Permission = "read_employee"
	PermUpdateEmployee Permission = "update_employee"
	PermDeleteEmployee Permission = "delete_employee"

	PermCreatePet Permission = "create_pet"
	PermReadPet   Permission = "read_pet"
	PermUpdatePet Permission = "update_pet"
	PermDeletePet Permission = "delete_pet"

	PermCreateReservation Permission = "create_reservation"
	PermReadReservation   Permission = "read_reservation"
	PermUpdateReservation Permission = "update_reservation"
	PermDeleteReservation Permission = "delete_reservation"

	PermCreateService Permission = "create_service"
	PermReadService   Permission = "read_service"
	PermUpdateService Permission = "update_service"
	PermDeleteService Permission = "delete_service"

	PermCreateMedicalHistory Permission = "create_medical_history"
	PermReadMedicalHistory   Permission = "read_medical_history"
	PermUpdateMedicalHistory Permission = "update_medical_history"
	PermDeleteMedicalHistory Permission = "delete_medical_history"

	PermCreateInvoice Permission = "create_invoice"
	PermReadInvoice   Permission = "read_invoice"
	PermUpdateInvoice Permission = "update_invoice"
	PermDeleteInvoice Permission = "delete_invoice"

	PermCreatePayment Permission = "create_payment"
	PermReadPayment   Permission = "read_payment"
	PermUpdatePayment Permission = "update_payment"
	PermDeletePayment Permission = "delete_payment"

	PermExportData   Permission = "export_data"
	PermViewLogs     Permission = "view_logs"
	PermSystemConfig Permission = "system_config"
)

// AllPermissions lists the closed permission set.
var AllPermissions = []Permission{
	PermCreateUser, PermReadUser, PermUpdateUser, PermDeleteUser,
	PermCreateEmployee, PermReadEmployee, PermUpdateEmployee, PermDeleteEmployee,
	PermCreatePet, PermReadPet, PermUpdatePet, PermDeletePet,
	PermCreateReservation, PermReadReservation, PermUpdateReservation, PermDeleteReservation,
	PermCreateService, PermReadService, PermUpdateService, PermDeleteService,
	PermCreateMedicalHistory, PermReadMedicalHistory, PermUpdateMedicalHistory, PermDeleteMedicalHistory,
	PermCreateInvoice, PermReadInvoice, PermUpdateInvoice, PermDeleteInvoice,
	PermCreatePayment, PermReadPayment, PermUpdatePayment, PermDeletePayment,
	PermExportData, PermViewLogs, PermSystemConfig,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// ParsePermission converts a wire token into a Permission.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(s)
	return p, p.Valid()
}

// Valid reports whether p belongs to the closed permission set.
func (p Permission) Valid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// rolePermissions is the static role → permission table.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleEmployee: {
		PermReadUser,
		PermCreatePet, PermReadPet, PermUpdatePet,
		PermCreateReservation, PermReadReservation, PermUpdateReservation,
		PermCreateService, PermReadService, PermUpdateService,
		PermCreateMedicalHistory, PermReadMedicalHistory, PermUpdateMedicalHistory,
		PermCreateInvoice, PermReadInvoice, PermUpdateInvoice,
		PermCreatePayment, PermReadPayment, PermUpdatePayment,
		PermExportData,
	},
	RoleUser: {
		PermCreatePet, PermReadPet, PermUpdatePet,
		PermCreateReservation, PermReadReservation,
		PermReadService,
		PermReadMedicalHistory,
		PermReadInvoice,
		PermReadPayment,
	},
}

// PermissionsFor returns a fresh copy of the role's permission set. Unknown
// roles get an empty set.
func PermissionsFor(role Role) PermissionSet {
	return NewPermissionSet(rolePermissions[role]...)
}

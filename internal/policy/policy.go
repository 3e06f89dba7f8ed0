// Package policy decides which roles may perform which scheduling actions.
package policy

const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
)

const (
	ActionGenerate           = "generate"
	ActionReconcile          = "reconcile"
	ActionAssign             = "assign"
	ActionReschedule         = "reschedule"
	ActionCreateSpecial      = "create_special"
	ActionCancelSpecial      = "cancel_special"
	ActionManageTemplates    = "manage_templates"
	ActionManageAvailability = "manage_availability"
	ActionViewPending        = "view_pending"
	ActionViewReports        = "view_reports"
	ActionReadVisits         = "read_visits"
	ActionWorkVisit          = "work_visit"
)

var grants = map[string]map[string]bool{
	RoleAdmin: {
		ActionGenerate:           true,
		ActionReconcile:          true,
		ActionAssign:             true,
		ActionReschedule:         true,
		ActionCreateSpecial:      true,
		ActionCancelSpecial:      true,
		ActionManageTemplates:    true,
		ActionManageAvailability: true,
		ActionViewPending:        true,
		ActionViewReports:        true,
		ActionReadVisits:         true,
	},
	RoleManager: {
		ActionViewPending: true,
		ActionViewReports: true,
		ActionReadVisits:  true,
	},
	RoleTechnician: {
		ActionWorkVisit:  true,
		ActionReadVisits: true,
	},
}

// CanPerform reports whether role is granted action. Unknown roles get nothing.
func CanPerform(role, action string) bool {
	return grants[role][action]
}

// IsPrivileged reports whether any role sees every visit of the tenant
// rather than only the caller's own.
func IsPrivileged(roles []string) bool {
	for _, role := range roles {
		if role == RoleAdmin || role == RoleManager {
			return true
		}
	}
	return false
}

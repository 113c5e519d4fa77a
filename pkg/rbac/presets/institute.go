package presets

import "institute-service/pkg/rbac"

// Institute roles.
const (
	RoleAdmin      rbac.Role = "admin"
	RolePrincipal  rbac.Role = "principal"
	RoleTeacher    rbac.Role = "teacher"
	RoleAccountant rbac.Role = "accountant"
	RoleStudent    rbac.Role = "student"
)

// Institute modules.
const (
	ResourceStudent        rbac.Resource = "student"
	ResourceDepartment     rbac.Resource = "department"
	ResourceEmployee       rbac.Resource = "employee"
	ResourceDesignation    rbac.Resource = "designation"
	ResourceFeesGroup      rbac.Resource = "fees-group"
	ResourceFeesType       rbac.Resource = "fees-type"
	ResourceFeesCollection rbac.Resource = "fees-collection"
	ResourcePayroll        rbac.Resource = "payroll"
	ResourceStaffLoan      rbac.Resource = "staff-loan"
	ResourceLeave          rbac.Resource = "leave"
	ResourceLeaveType      rbac.Resource = "leave-type"
	ResourceNotice         rbac.Resource = "notice"
	ResourceRole           rbac.Resource = "role"
	ResourcePermission     rbac.Resource = "permission"
	ResourceRoleLink       rbac.Resource = "role-link"
	ResourceAudit          rbac.Resource = "audit"
)

// Institute actions.
const (
	ActionAdd    rbac.Action = "add"
	ActionUpdate rbac.Action = "update"
	ActionDelete rbac.Action = "delete"
	ActionList   rbac.Action = "list"
	ActionView   rbac.Action = "view"
	ActionReload rbac.Action = "reload"
)

var (
	readOnly = []rbac.Action{ActionList, ActionView}
	crud     = []rbac.Action{ActionAdd, ActionUpdate, ActionDelete, ActionList, ActionView}
)

// Institute returns the default policy set for a school deployment.
//
// Role hierarchy (child inherits parent):
//
//	admin     -> principal, accountant
//	principal -> teacher
//
// student and teacher hold only direct grants. Only admin manages roles,
// permissions and role links, and only admin reads the audit log.
func Institute() rbac.Config {
	return rbac.Config{
		Roles: []rbac.RoleDefinition{
			{Name: RoleAdmin, Description: "Full administrative access"},
			{Name: RolePrincipal, Description: "Academic and staff administration"},
			{Name: RoleTeacher, Description: "Teaching staff"},
			{Name: RoleAccountant, Description: "Fees, payroll and staff loans"},
			{Name: RoleStudent, Description: "Enrolled student"},
		},
		Resources: []rbac.Resource{
			ResourceStudent,
			ResourceDepartment,
			ResourceEmployee,
			ResourceDesignation,
			ResourceFeesGroup,
			ResourceFeesType,
			ResourceFeesCollection,
			ResourcePayroll,
			ResourceStaffLoan,
			ResourceLeave,
			ResourceLeaveType,
			ResourceNotice,
			ResourceRole,
			ResourcePermission,
			ResourceRoleLink,
			ResourceAudit,
		},
		Actions: []rbac.Action{
			ActionAdd,
			ActionUpdate,
			ActionDelete,
			ActionList,
			ActionView,
			ActionReload,
		},
		Grants: map[rbac.Role]map[rbac.Resource][]rbac.Action{
			RoleAdmin: {
				ResourceRole:       crud,
				ResourcePermission: {ActionAdd, ActionDelete, ActionList, ActionView, ActionReload},
				ResourceRoleLink:   {ActionAdd, ActionDelete, ActionList},
				ResourceAudit:      {ActionList},
			},
			RolePrincipal: {
				ResourceStudent:     crud,
				ResourceDepartment:  crud,
				ResourceEmployee:    crud,
				ResourceDesignation: crud,
				ResourceLeave:       {ActionUpdate, ActionDelete},
				ResourceLeaveType:   crud,
				ResourceNotice:      crud,
			},
			RoleTeacher: {
				ResourceStudent:     readOnly,
				ResourceDepartment:  readOnly,
				ResourceDesignation: readOnly,
				ResourceEmployee:    {ActionView},
				ResourceLeave:       {ActionAdd, ActionList, ActionView},
				ResourceLeaveType:   readOnly,
				ResourceNotice:      readOnly,
			},
			RoleAccountant: {
				ResourceFeesGroup:      crud,
				ResourceFeesType:       crud,
				ResourceFeesCollection: crud,
				ResourcePayroll:        crud,
				ResourceStaffLoan:      crud,
				ResourceEmployee:       readOnly,
				ResourceStudent:        readOnly,
				ResourceNotice:         readOnly,
			},
			RoleStudent: {
				ResourceNotice:         readOnly,
				ResourceFeesCollection: {ActionView},
				ResourceLeave:          {ActionAdd, ActionView},
			},
		},
		Links: []rbac.Link{
			{Child: RolePrincipal, Parent: RoleTeacher},
			{Child: RoleAdmin, Parent: RolePrincipal},
			{Child: RoleAdmin, Parent: RoleAccountant},
		},
	}
}

package roles

// Role is the permission level of a user.
type Role string

const (
	Employee Role = "employee"
	Manager  Role = "manager"
	Admin    Role = "admin"
)

// HierarchyLevel orders roles from least to most privileged.
type HierarchyLevel int

const (
	EmployeeLevel HierarchyLevel = 1
	ManagerLevel  HierarchyLevel = 2
	AdminLevel    HierarchyLevel = 3
)

// GetHierarchyLevel returns the level of the role. Unknown roles get the lowest level.
func (r Role) GetHierarchyLevel() HierarchyLevel {
	switch r {
	case Employee:
		return EmployeeLevel
	case Manager:
		return ManagerLevel
	case Admin:
		return AdminLevel
	default:
		return EmployeeLevel
	}
}

// HasPermission reports whether r is at least requiredRole.
func (r Role) HasPermission(requiredRole Role) bool {
	return r.GetHierarchyLevel() >= requiredRole.GetHierarchyLevel()
}

func (r Role) IsValid() bool {
	switch r {
	case Employee, Manager, Admin:
		return true
	default:
		return false
	}
}

// CanApprove reports whether users of this role may be picked as request approvers.
func (r Role) CanApprove() bool {
	return r.IsValid() && r.HasPermission(Manager)
}

// ApproverRoles lists every role eligible for approver assignment.
func ApproverRoles() []Role {
	var eligible []Role
	for _, r := range []Role{Employee, Manager, Admin} {
		if r.CanApprove() {
			eligible = append(eligible, r)
		}
	}
	return eligible
}

func (r Role) String() string {
	return string(r)
}

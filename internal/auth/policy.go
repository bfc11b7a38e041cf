package auth

import "github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"

// Policy names a fixed set of roles permitted on a route. Every protected
// route carries exactly one policy; the auth endpoints carry none.
type Policy string

const (
	PolicyAdminOnly    Policy = "AdminOnly"
	PolicyStaffOnly    Policy = "StaffOnly"
	PolicyAdminOrStaff Policy = "AdminOrStaff"
)

var policyRoles = map[Policy][]model.Role{
	PolicyAdminOnly:    {model.RoleAdmin},
	PolicyStaffOnly:    {model.RoleStaff},
	PolicyAdminOrStaff: {model.RoleAdmin, model.RoleStaff},
}

// Allows reports whether the role is a member of the policy's role set.
// Unknown policies allow nothing.
func (p Policy) Allows(role model.Role) bool {
	for _, allowed := range policyRoles[p] {
		if role == allowed {
			return true
		}
	}
	return false
}

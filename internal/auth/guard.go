package auth

// Permission represents a named capability in the portal.
type Permission string

// Permission constants.
const (
	PermProfileManage    Permission = "profile:manage"
	PermFeedbackSubmit   Permission = "feedback:submit"
	PermFeedbackReceive  Permission = "feedback:receive"
	PermSuggestionSubmit Permission = "suggestion:submit"
	PermSuggestionReview Permission = "suggestion:review"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleStudent: {
		PermProfileManage,
		PermFeedbackSubmit,
		PermSuggestionSubmit,
	},
	RoleFaculty: {
		PermProfileManage,
		PermFeedbackReceive,
		PermSuggestionSubmit,
		PermSuggestionReview,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// Requirement is the access rule declared by a route. The zero value
// admits any authenticated identity.
type Requirement struct {
	role Role
	perm Permission
}

// RequireAuthenticated admits any logged-in user.
func RequireAuthenticated() Requirement {
	return Requirement{}
}

// RequireRole admits only users holding role.
func RequireRole(role Role) Requirement {
	return Requirement{role: role}
}

// RequirePermission admits users whose role grants perm.
func RequirePermission(perm Permission) Requirement {
	return Requirement{perm: perm}
}

// LoginRole returns the portal an anonymous visitor should be sent to:
// the required role, or the only role granting the required permission.
// Requirements any role could satisfy send visitors to the student login.
func (r Requirement) LoginRole() Role {
	if r.role != "" {
		return r.role
	}
	if r.perm != "" {
		var holder Role
		holders := 0
		for _, role := range ValidRoles {
			if HasPermission(role, r.perm) {
				holder = role
				holders++
			}
		}
		if holders == 1 {
			return holder
		}
	}
	return RoleStudent
}

// Require decides whether id may proceed. It returns nil to allow,
// ErrNotAuthenticated for an anonymous identity and ErrWrongRole for a
// logged-in user lacking the role.
//
// The decision depends only on the identity's role, which never changes
// after registration.
func Require(id Identity, req Requirement) error {
	if !id.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if req.role != "" && id.Role != req.role {
		return ErrWrongRole
	}
	if req.perm != "" && !HasPermission(id.Role, req.perm) {
		return ErrWrongRole
	}
	return nil
}

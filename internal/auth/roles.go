package auth

// Role names. Keep these stable; issued tokens carry them verbatim.
//
// dispatcher: day-to-day queue work (view, remove callers).
// admin: everything dispatchers can do, plus transfer overrides.
const (
	RoleDispatcher = "dispatcher"
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func ValidRole(role string) bool {
	switch role {
	case RoleDispatcher, RoleAdmin:
		return true
	default:
		return false
	}
}

package models

// InterfaceType selects which front-desk interface a role gets.
type InterfaceType string

const (
	InterfaceUser        InterfaceType = "user"
	InterfaceDutyOfficer InterfaceType = "duty_officer"

	// legacyDutyCode is an obsolete role code that still appears on old
	// accounts and maps to the duty-officer interface.
	legacyDutyCode = "duty"
)

// ResolveInterfaceType normalizes a raw role code. Unknown or missing codes
// resolve to the standard user interface.
func ResolveInterfaceType(code string) InterfaceType {
	switch code {
	case string(InterfaceDutyOfficer), legacyDutyCode:
		return InterfaceDutyOfficer
	default:
		return InterfaceUser
	}
}

// Role carries the interface type and the set of granted capability codes.
type Role struct {
	InterfaceType string   `json:"interface_type"`
	Permissions   []string `json:"permissions"`
}

// User is the authenticated account. Loaded once at session start and
// immutable for the session's duration; a role change requires re-login.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	Role    *Role  `json:"role,omitempty"`
}

// InterfaceType resolves the user's effective interface. Admins without a
// role get the standard interface.
func (u *User) InterfaceType() InterfaceType {
	if u == nil || u.Role == nil {
		return InterfaceUser
	}
	return ResolveInterfaceType(u.Role.InterfaceType)
}

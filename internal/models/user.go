package models

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// SessionUser is the signed-in user persisted under the "user" key.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	PIN   string `json:"pin,omitempty"`
}

package models

import "time"

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

type Admin struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// AdminView is the listing shape of an Admin; the password hash is left out.
type AdminView struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

func (a Admin) View() AdminView {
	return AdminView{
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		CreatedBy: a.CreatedBy,
	}
}

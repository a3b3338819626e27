package models

// User is an end user allowed to browse and download packages.
// Password holds a bcrypt hash, never the plain value.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      string `json:"age"`
	Password string `json:"password"`
}

package models

// User is the operator signed in to the POS API.
type User struct {
	Username string `json:"username"`
	Name     string `json:"nombre"`
	Role     string `json:"role,omitempty"`
}

// DisplayName is the name recorded as salesperson on sales.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

package models

// User represents an authenticated user. Users belong to an organization
// (an immigration consultancy); admin and super_admin are global roles.
type User struct {
	ID           string  `json:"id"`
	OrgID        *string `json:"orgId,omitempty"` // nil for global admins
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // Never expose in JSON responses
	Name         string  `json:"name"`
	Role         string  `json:"role"` // viewer | case_manager | admin | super_admin
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// RegisterRequest contains the fields needed to create a new account.
// Registration creates the user's organization alongside the account;
// teammates are invited into it through User Management afterwards.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	OrganizationName string `json:"organizationName"`
}

// Validate checks that all required registration fields are present.
func (r *RegisterRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if len(r.Password) < 8 {
		errors["password"] = "Password must be at least 8 characters"
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if len(r.OrganizationName) < 2 {
		errors["organizationName"] = "Organization name is required (min 2 characters)"
	}

	return errors
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// UpdateRoleRequest is used by admins to change a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// Validate checks that the role is one of the allowed values.
func (r *UpdateRoleRequest) Validate() map[string]string {
	errors := map[string]string{}
	valid := map[string]bool{"viewer": true, "case_manager": true, "admin": true, "super_admin": true}
	if !valid[r.Role] {
		errors["role"] = "Role must be 'viewer', 'case_manager', 'admin', or 'super_admin'"
	}
	return errors
}

// AuthResponse is sent back after successful login/registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

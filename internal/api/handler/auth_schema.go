package handler

// registerRequest is the body of POST /auth/register.
type registerRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=50" example:"Ada"`
	LastName  string `json:"lastName" validate:"required,notblank,max=50" example:"Lovelace"`
	Email     string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password  string `json:"password" validate:"required,strongpassword" example:"Abcdef1!"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user" example:"user"`
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required" example:"Abcdef1!"`
}

// refreshRequest lets non-browser clients send the refresh token in the body.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// updateProfileRequest is the body of PUT /auth/profile. Omitted fields are unchanged.
type updateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,notblank,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,notblank,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// changePasswordRequest is the body of PUT /auth/change-password.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

// authData is returned by register, login and refresh.
type authData struct {
	AccessToken string        `json:"accessToken"`
	User        *userResponse `json:"user,omitempty"`
}

// userData wraps a single user.
type userData struct {
	User userResponse `json:"user"`
}

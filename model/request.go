// file: model/request.go

package model

// RegisterRequest holds the text fields of the multipart registration form.
type RegisterRequest struct {
	Fullname string `form:"fullname" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Username string `form:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `form:"password" validate:"required,min=8"`
}

// LoginRequest accepts either a username or an email as the identifier.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required_without_all=Username Email"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password" validate:"required"`
}

// Identifier returns the first identifier present in the request.
func (r *LoginRequest) Identifier() string {
	for _, id := range []string{r.UsernameOrEmail, r.Username, r.Email} {
		if id != "" {
			return id
		}
	}
	return ""
}

// RefreshRequest carries the refresh token when it is not sent as a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is validated after the new/confirm equality check, so a
// mismatch is reported before any field rule.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=8"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	User         *PublicUser `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

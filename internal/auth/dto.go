package auth

import (
	"github.com/dmarqs/promoterhub-backend/internal/accounts"
	"github.com/dmarqs/promoterhub-backend/internal/users"
)

// LoginRequest is the credential payload accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token pair plus the authenticated identity.
type LoginResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	User         *users.UserDTO       `json:"user"`
	Account      *accounts.AccountDTO `json:"account"`
}

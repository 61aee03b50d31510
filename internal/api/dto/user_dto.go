package dto

import (
	"time"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	AadharNo string `json:"aadhar_no"`
	Password string `json:"password"`
}

func (r SignupRequest) ToInput() service.SignupInput {
	return service.SignupInput{Username: r.Username, Email: r.Email, AadharNo: r.AadharNo, Password: r.Password}
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) ToInput() service.LoginInput {
	return service.LoginInput{Email: r.Email, Password: r.Password}
}

// UserResponse is the public view of an account. The identity number is never echoed.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func NewAuthResponse(u *domain.User, token *domain.Token) AuthResponse {
	return AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt, User: NewUserResponse(u)}
}

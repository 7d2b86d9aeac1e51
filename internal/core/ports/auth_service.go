package ports

import (
	"context"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// RegisterInput carries the data for a new account. Role must be patient or
// doctor; admin accounts are seeded out of band.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	Role     string
}

// AuthService implements registration and login.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

package service

import (
	"context"

	"github.com/tamojuntogames/accounts-api/internal/domain"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ip string) (*LoginResult, error)
}

type UserServiceInterface interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id uint, input UpdateUserInput) (*domain.User, error)
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id uint) error
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tamojuntogames/accounts-api/internal/domain"
	"github.com/tamojuntogames/accounts-api/internal/observability"
	"github.com/tamojuntogames/accounts-api/internal/repository"
	"github.com/tamojuntogames/accounts-api/internal/security"
)

const minPasswordLength = 8

var (
	ErrFullNameRequired    = errors.New("full name is required")
	ErrNicknameRequired    = errors.New("nickname is required")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmailsDoNotMatch    = errors.New("emails do not match")
	ErrPasswordsDoNotMatch = errors.New("passwords do not match")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrEmailTaken          = errors.New("email already registered")
)

type CreateUserInput struct {
	FullName        string
	Nickname        string
	Email           string
	ConfirmEmail    string
	Password        string
	ConfirmPassword string
	BirthDate       *time.Time
	Gender          string
}

type UpdateUserInput struct {
	FullName string
	Nickname string
	Email    string
}

var (
	createEmailMatch = fieldsMatch(
		func(in CreateUserInput) string { return in.Email },
		func(in CreateUserInput) string { return in.ConfirmEmail },
		ErrEmailsDoNotMatch,
	)
	createPasswordMatch = fieldsMatch(
		func(in CreateUserInput) string { return in.Password },
		func(in CreateUserInput) string { return in.ConfirmPassword },
		ErrPasswordsDoNotMatch,
	)
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Create registers a new account. Email uniqueness is checked explicitly
// before the insert; the store's unique index still backs the check, so a
// concurrent insert racing past it surfaces as the same conflict error.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserOperation(ctx, "create", outcome, time.Since(start)) }()

	input.FullName = strings.TrimSpace(input.FullName)
	input.Nickname = strings.TrimSpace(input.Nickname)
	input.Email = strings.TrimSpace(input.Email)
	input.ConfirmEmail = strings.TrimSpace(input.ConfirmEmail)

	if input.FullName == "" {
		outcome = "bad_request"
		return nil, ErrFullNameRequired
	}
	if input.Nickname == "" {
		outcome = "bad_request"
		return nil, ErrNicknameRequired
	}
	if err := validateEmailFormat(input.Email); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if err := createEmailMatch.Validate(input); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if err := createPasswordMatch.Validate(input); err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if err := validatePasswordLength(input.Password); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	taken, err := s.userRepo.ExistsByEmail(input.Email, 0)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	if taken {
		outcome = "conflict"
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		outcome = "error"
		return nil, err
	}

	user := &domain.User{
		FullName:     input.FullName,
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: hash,
		BirthDate:    input.BirthDate,
		Gender:       strings.TrimSpace(input.Gender),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			outcome = "conflict"
			return nil, ErrEmailTaken
		}
		outcome = "error"
		return nil, err
	}
	return user, nil
}

// Update changes name, nickname and email only. Password, birth date and
// gender are never touched here. The uniqueness check excludes the record
// being updated, so keeping the same email succeeds.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*domain.User, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserOperation(ctx, "update", outcome, time.Since(start)) }()

	input.FullName = strings.TrimSpace(input.FullName)
	input.Nickname = strings.TrimSpace(input.Nickname)
	input.Email = strings.TrimSpace(input.Email)

	if input.FullName == "" {
		outcome = "bad_request"
		return nil, ErrFullNameRequired
	}
	if input.Nickname == "" {
		outcome = "bad_request"
		return nil, ErrNicknameRequired
	}
	if err := validateEmailFormat(input.Email); err != nil {
		outcome = "bad_request"
		return nil, err
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}

	taken, err := s.userRepo.ExistsByEmail(input.Email, id)
	if err != nil {
		outcome = "error"
		return nil, err
	}
	if taken {
		outcome = "conflict"
		return nil, ErrEmailTaken
	}

	user.FullName = input.FullName
	user.Nickname = input.Nickname
	user.Email = input.Email
	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			outcome = "conflict"
			return nil, ErrEmailTaken
		}
		outcome = "error"
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserOperation(ctx, "get", outcome, time.Since(start)) }()

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserOperation(ctx, "list", outcome, time.Since(start)) }()

	users, err := s.userRepo.List()
	if err != nil {
		outcome = "error"
		return nil, err
	}
	return users, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordUserOperation(ctx, "delete", outcome, time.Since(start)) }()

	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return err
	}
	return nil
}

package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tamojuntogames/accounts-api/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail surfaces the store's unique index on email. The
	// service pre-checks uniqueness, but a concurrent insert can still hit
	// the constraint; both paths report the same conflict.
	ErrDuplicateEmail = errors.New("email already in use")
)

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	ExistsByEmail(email string, excludeID uint) (bool, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	Delete(id uint) error
	List() ([]domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByEmail matches by the store's native string equality, which is
// case-sensitive here.
func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ExistsByEmail reports whether a user other than excludeID holds email.
// excludeID zero means no exclusion.
func (r *GormUserRepository) ExistsByEmail(email string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&domain.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	return translate(r.db.Create(user).Error)
}

func (r *GormUserRepository) Update(user *domain.User) error {
	return translate(r.db.Save(user).Error)
}

func (r *GormUserRepository) Delete(id uint) error {
	res := r.db.Delete(&domain.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := r.db.Order("id").Find(&users).Error
	return users, err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	default:
		return err
	}
}

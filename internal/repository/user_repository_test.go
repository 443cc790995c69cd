package repository

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tamojuntogames/accounts-api/internal/domain"
)

func newTestRepo(t *testing.T) UserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory sqlite is per connection; keep the pool at one so every
	// query sees the migrated schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewUserRepository(db)
}

func seedUser(t *testing.T, repo UserRepository, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		FullName:     "Joao Pedro Lima",
		Nickname:     "jp",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
	}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	created := seedUser(t, repo, "jp@example.com")
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	byID, err := repo.FindByID(created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "jp@example.com" {
		t.Fatalf("unexpected email: %s", byID.Email)
	}

	byEmail, err := repo.FindByEmail("jp@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byEmail.ID)
	}
}

func TestFindByEmailIsCaseSensitive(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "jp@example.com")

	if _, err := repo.FindByEmail("JP@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found for different casing, got %v", err)
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "dup@example.com")

	err := repo.Create(&domain.User{
		FullName:     "Other Person",
		Nickname:     "other",
		Email:        "dup@example.com",
		PasswordHash: "x",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestExistsByEmailExcludesOwner(t *testing.T) {
	repo := newTestRepo(t)
	owner := seedUser(t, repo, "owner@example.com")
	seedUser(t, repo, "other@example.com")

	exists, err := repo.ExistsByEmail("owner@example.com", 0)
	if err != nil || !exists {
		t.Fatalf("expected email to exist: exists=%t err=%v", exists, err)
	}

	exists, err = repo.ExistsByEmail("owner@example.com", owner.ID)
	if err != nil || exists {
		t.Fatalf("expected owner's own email to be excluded: exists=%t err=%v", exists, err)
	}

	exists, err = repo.ExistsByEmail("other@example.com", owner.ID)
	if err != nil || !exists {
		t.Fatalf("expected another user's email to count: exists=%t err=%v", exists, err)
	}
}

func TestUpdatePersistsChanges(t *testing.T) {
	repo := newTestRepo(t)
	u := seedUser(t, repo, "before@example.com")

	u.Email = "after@example.com"
	u.Nickname = "jota"
	if err := repo.Update(u); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Email != "after@example.com" || got.Nickname != "jota" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	u := seedUser(t, repo, "gone@example.com")

	if err := repo.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListOrderedByID(t *testing.T) {
	repo := newTestRepo(t)
	first := seedUser(t, repo, "a@example.com")
	second := seedUser(t, repo, "b@example.com")

	users, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != first.ID || users[1].ID != second.ID {
		t.Fatalf("unexpected order: %d, %d", users[0].ID, users[1].ID)
	}
}

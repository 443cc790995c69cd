package domain

import "time"

// User is an account record. Nickname carries the "apelido" a player is
// known by inside the community; it is also embedded as a display claim in
// issued tokens. PasswordHash never leaves the repository boundary: the
// json tag keeps it out of every response payload.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FullName     string     `gorm:"size:255;not null" json:"full_name"`
	Nickname     string     `gorm:"size:64;not null" json:"nickname"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:1024;not null" json:"-"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Gender       string     `gorm:"size:32" json:"gender,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

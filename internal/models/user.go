package models

import "time"

// User represents a registered account. Email is the login identifier and
// is stored lowercase. Hearts holds the ids of the stores the user
// favorited; it lives in the hearts join table, not in a column.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created"`

	Hearts []string `json:"hearts" gorm:"-"`
}

// Heart is one favorited store for one user. The composite primary key
// guarantees a store appears at most once in a user's hearts.
type Heart struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	StoreID   string    `json:"store_id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created"`
}

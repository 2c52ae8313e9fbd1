package models

import "time"

// Review is a user's rating of a store. Reviews are immutable after
// creation. Author is joined in per read, not stored.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	StoreID   string    `json:"store_id" gorm:"index;type:varchar(36)" validate:"required"`
	AuthorID  string    `json:"author_id" gorm:"index;type:varchar(36)" validate:"required"`
	Text      string    `json:"text" gorm:"type:text" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time `json:"created"`

	Author *User `json:"author,omitempty" gorm:"-"`
}

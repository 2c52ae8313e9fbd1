package models

import "time"

// Store represents a geolocated business listing created by a user.
// Tags, Author and Reviews are not columns; they are joined in explicitly
// by the repository/service layer per read.
type Store struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(120)" validate:"required,min=1,max=120"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(150)"`
	Description string    `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Address     string    `json:"address" validate:"required"`
	Longitude   float64   `json:"longitude" validate:"min=-180,max=180"`
	Latitude    float64   `json:"latitude" validate:"min=-90,max=90"`
	Photo       string    `json:"photo,omitempty"`
	AuthorID    string    `json:"author_id" gorm:"index;type:varchar(36)"`
	CreatedAt   time.Time `json:"created"`

	Tags    []string `json:"tags" gorm:"-"`
	Author  *User    `json:"author,omitempty" gorm:"-"`
	Reviews []Review `json:"reviews,omitempty" gorm:"-"`
}

// StoreTag is one (store, tag) pair. Tags are kept as an ordered sequence
// per store; Position preserves the order the author supplied them in.
type StoreTag struct {
	StoreID  string `json:"store_id" gorm:"primaryKey;type:varchar(36)"`
	Position int    `json:"position" gorm:"primaryKey"`
	Tag      string `json:"tag" gorm:"index;type:varchar(60)"`
}

// TagCount is one row of the tag aggregation: a distinct tag value and how
// many stores carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// StoreSummary is the projection returned by the proximity search:
// enough to render a map pin, nothing more.
type StoreSummary struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Photo       string  `json:"photo,omitempty"`
	// DistanceMeters is measured from the query point.
	DistanceMeters float64 `json:"distance_meters"`
}

// SearchResult is a store matched by the text search, annotated with the
// relevance score the index assigned to it.
type SearchResult struct {
	Store Store   `json:"store"`
	Score float64 `json:"score"`
}

// TopStore is one row of the top-rated aggregation. Only stores with at
// least two reviews qualify.
type TopStore struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Photo         string  `json:"photo,omitempty"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

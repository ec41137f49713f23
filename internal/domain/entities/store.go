package entities

import "time"

// Store represents a listed business in the directory
type Store struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	Tags        []string  `json:"tags,omitempty" db:"-"`
	Address     string    `json:"address" db:"address"`
	Location    Location  `json:"location" db:"-"`
	Photo       string    `json:"photo,omitempty" db:"photo"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// RankedStore is a store joined with its review aggregate, produced by the
// top-stores query.
type RankedStore struct {
	Store
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// NearbyStore is a store annotated with its distance from a search origin.
type NearbyStore struct {
	Store
	DistanceMeters float64 `json:"distance_meters"`
}

// TagCount is a distinct tag with the number of stores carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

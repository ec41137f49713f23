package entities

import "time"

// Review represents a user review of a store. At most one review exists per
// (store, author) pair; reviews are immutable once written.
type Review struct {
	ID        string    `json:"id" db:"id"`
	StoreID   string    `json:"store_id" db:"store_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Rating    int       `json:"rating" db:"rating"` // 1-5
	Text      string    `json:"text,omitempty" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

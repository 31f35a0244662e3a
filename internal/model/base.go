package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Touch stamps a new row: assigns an id if missing and sets both timestamps.
func (b *Base) Touch(now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// DefaultPageSize is the page size of every paginated listing.
const DefaultPageSize = 10

// MaxPageNumber caps requested pages; anything past it is an empty page anyway.
const MaxPageNumber = 1_000_000

// Page represents common pagination parameters
type Page struct {
	Number int `json:"page" form:"page"`
	Size   int `json:"per_page" form:"per_page"`
}

// NewPage normalises a 1-based page number with the default size.
func NewPage(number int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: min(number, MaxPageNumber), Size: DefaultPageSize}
}

// Offset saturates at math.MaxInt instead of wrapping negative.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

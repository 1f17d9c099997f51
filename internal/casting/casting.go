package casting

import (
	"math"
	"strings"

	"github.com/ansel1/merry"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// Casting is a single row of the castings table.
type Casting struct {
	Casting   string `db:"casting" json:"casting"`
	Years     string `db:"years" json:"years"`
	CID       string `db:"cid" json:"cid"`
	LowPower  string `db:"low_power" json:"low_power"`
	HighPower string `db:"high_power" json:"high_power"`
	MainCaps  string `db:"main_caps" json:"main_caps"`
	Comments  string `db:"comments" json:"comments"`
}

// Summary is the projection of Casting used for browsing.
type Summary struct {
	Casting string `db:"casting" json:"casting"`
	Years   string `db:"years" json:"years"`
	CID     string `db:"cid" json:"cid"`
}

type Page struct {
	Castings   []Summary `json:"castings"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// HasPrev reports whether a page before this one exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a page after this one exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

type SearchResult struct {
	Results []Casting `json:"results"`
	Query   string    `json:"query"`
	Count   int       `json:"count"`
}

var (
	ErrNotFound         = merry.New("Casting not found").WithHTTPCode(404)
	ErrInvalidParameter = merry.New("invalid parameter").WithHTTPCode(422)
)

// ValidatePage checks page and limit bounds.
func ValidatePage(page, limit int) error {
	if page < 1 {
		return ErrInvalidParameter.Here().WithMessagef("page must be greater than or equal to 1, got %d", page)
	}
	if limit < 1 || limit > MaxLimit {
		return ErrInvalidParameter.Here().WithMessagef("limit must be between 1 and %d, got %d", MaxLimit, limit)
	}
	if page-1 > math.MaxInt/limit {
		return ErrInvalidParameter.Here().WithMessagef("page %d is out of range for limit %d", page, limit)
	}
	return nil
}

func ValidateQuery(q string) error {
	if len(q) == 0 {
		return ErrInvalidParameter.Here().WithMessage("query must be at least 1 character long")
	}
	return nil
}

// TotalPages is ceil(total/limit). limit must be positive.
func TotalPages(total, limit int) int {
	return (total + limit - 1) / limit
}

// Offset returns the number of rows preceding page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// ExportFileName is the name under which a casting is offered for download.
func ExportFileName(id string) string {
	return "tesla_casting_" + id + ".json"
}

// NormalizeID trims user input typed into the lookup form.
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}

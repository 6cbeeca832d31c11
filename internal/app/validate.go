package app

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"

	"estate_reviews/internal/domain"
)

const (
	maxBody  = 4000
	maxTitle = 120
	maxName  = 80
	maxEmail = 254
	maxNotes = 1000

	// column widths of county, town and estate in every table
	maxCounty = 120
	maxTown   = 120
	maxEstate = 200
)

func tooLong(s string, max int) bool { return utf8.RuneCountInString(s) > max }

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

func checkTriple(v *domain.InvalidPayloadError, t domain.Triple) {
	checkName(v, "county", t.County, maxCounty)
	checkName(v, "town", t.Town, maxTown)
	checkName(v, "estate", t.Estate, maxEstate)
}

func checkName(v *domain.InvalidPayloadError, field, s string, max int) {
	switch {
	case s == "":
		v.Add(field, "required")
	case tooLong(s, max):
		v.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

func checkRating(v *domain.InvalidPayloadError, r float64) {
	if r != math.Trunc(r) || r < 1 || r > 5 {
		v.Add("rating", "must be a whole number from 1 to 5")
	}
}

func checkEmail(v *domain.InvalidPayloadError, field string, e *string) {
	if e == nil {
		return
	}
	if tooLong(*e, maxEmail) || !validEmail(*e) {
		v.Add(field, "must be a valid email address")
	}
}

func trimTriple(t domain.Triple) domain.Triple {
	return domain.Triple{
		County: strings.TrimSpace(t.County),
		Town:   strings.TrimSpace(t.Town),
		Estate: strings.TrimSpace(t.Estate),
	}
}

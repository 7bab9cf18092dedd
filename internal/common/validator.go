package common

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinMovieYear is the earliest accepted release year.
	MinMovieYear = 1900
	// MaxMovieYear is the latest accepted release year.
	MaxMovieYear = 2023
	// MinMovieRating is the lowest accepted rating.
	MinMovieRating = 1.0
	// MaxMovieRating is the highest accepted rating.
	MaxMovieRating = 10.0
)

var imdbTitleIDRE = regexp.MustCompile(`^tt\d+$`)

// ValidateIMDBTitleID checks if the given IMDB title ID is valid.
// It ensures the title starts with 'tt' followed by a numeric suffix.
func ValidateIMDBTitleID(ID string) error {

	if !imdbTitleIDRE.MatchString(ID) {
		return errors.New("invalid IMDB title")
	}

	return nil
}

// ValidationError reports a malformed, missing or out of range input field.
type ValidationError struct {
	// Field is the name of the first violated field.
	Field string
	// Message is the human readable description, e.g. `"year" is required`.
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field whose message is the quoted field name followed by reason.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%q %s", field, reason),
	}
}

// ParseMovieID converts a path parameter into a movie ID.
// It ensures the value is a base 10 integer greater than 0.
func ParseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationError("id", "must be an integer")
	}

	if id < 1 {
		return 0, NewValidationError("id", "must be greater than or equal to 1")
	}

	return id, nil
}

// ValidateMovieName checks a movie name is present when required and never empty.
func ValidateMovieName(name *string, required bool) error {
	if name == nil {
		if required {
			return NewValidationError("name", "is required")
		}
		return nil
	}

	if *name == "" {
		return NewValidationError("name", "is not allowed to be empty")
	}

	return nil
}

// ValidateMovieYear checks a release year is present when required and within [MinMovieYear, MaxMovieYear].
func ValidateMovieYear(year *int, required bool) error {
	if year == nil {
		if required {
			return NewValidationError("year", "is required")
		}
		return nil
	}

	if *year < MinMovieYear {
		return NewValidationError("year", fmt.Sprintf("must be greater than or equal to %d", MinMovieYear))
	}

	if *year > MaxMovieYear {
		return NewValidationError("year", fmt.Sprintf("must be less than or equal to %d", MaxMovieYear))
	}

	return nil
}

// ValidateMovieRating checks an optional rating is within [MinMovieRating, MaxMovieRating].
func ValidateMovieRating(rating *float64) error {
	if rating == nil {
		return nil
	}

	if *rating < MinMovieRating {
		return NewValidationError("rating", fmt.Sprintf("must be greater than or equal to %g", MinMovieRating))
	}

	if *rating > MaxMovieRating {
		return NewValidationError("rating", fmt.Sprintf("must be less than or equal to %g", MaxMovieRating))
	}

	return nil
}

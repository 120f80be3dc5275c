package utils

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateOnly = "2006-01-02"

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates and
// returns the instant in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, BadRequest("Date must be RFC3339 or YYYY-MM-DD")
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// ParseObjectID converts a hex id from a request into an ObjectID, naming
// the field in the error.
func ParseObjectID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, BadRequest("Invalid %s", field)
	}
	return id, nil
}

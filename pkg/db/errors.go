package db

import "strings"

// IsUniqueViolation reports whether err looks like a Postgres unique
// constraint failure. Pass the constraint name to match a specific index
// (e.g. the per-account contact email index); with an empty name any
// duplicate-key error matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLen  = 64
	DefaultUsername = "Anonymous"
)

// UserID is the id of the connection that carries the user.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, username string) *User {
	return &User{ID: id, Username: NormalizeUsername(username)}
}

// NormalizeUsername never rejects: display names are self-reported free text.
func NormalizeUsername(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultUsername
	}
	return truncateRunes(name, MaxUsernameLen)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

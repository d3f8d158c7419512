// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"hash/fnv"
)

const (
	MaxUserIDLen = 64
	MaxNameLen   = 36
)

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

type UserID string

// Role is the part a connection plays inside a session.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleGuest       Role = "guest"
)

// ParseRole maps untrusted client input onto a known role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleHost, RoleParticipant, RoleGuest:
		return Role(s)
	default:
		return RoleParticipant
	}
}

type User struct {
	ID    UserID `json:"userId"`
	Name  string `json:"userName"`
	Color string `json:"color"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, name string) (*User, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &User{ID: id, Name: name, Color: ColorFor(id)}, nil
}

var palette = [...]string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// ColorFor assigns a stable cursor color per user id.
func ColorFor(id UserID) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

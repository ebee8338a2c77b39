package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validUser() User {
	return User{Name: "Ann", Email: "ann@x.com", Age: 30}
}

func TestUser_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *User)
		want   bool
	}{
		{"valid", func(u *User) {}, true},
		{"empty name", func(u *User) { u.Name = "" }, false},
		{"blank name", func(u *User) { u.Name = "   " }, false},
		{"name at limit", func(u *User) { u.Name = strings.Repeat("a", MaxNameLength) }, true},
		{"name too long", func(u *User) { u.Name = strings.Repeat("a", MaxNameLength+1) }, false},
		{"multibyte name at limit", func(u *User) { u.Name = strings.Repeat("é", MaxNameLength) }, true},
		{"email without at", func(u *User) { u.Email = "ann.x.com" }, false},
		{"email without tld", func(u *User) { u.Email = "ann@x" }, false},
		{"email short tld", func(u *User) { u.Email = "ann@x.c" }, false},
		{"email with plus", func(u *User) { u.Email = "ann+tag@mail.example.org" }, true},
		{"negative age", func(u *User) { u.Age = -1 }, false},
		{"age zero", func(u *User) { u.Age = 0 }, true},
		{"age max", func(u *User) { u.Age = 150 }, true},
		{"age over max", func(u *User) { u.Age = 151 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(&u)
			assert.Equal(t, tt.want, u.IsValid())
			if !tt.want {
				assert.True(t, errors.Is(u.Validate(), ErrValidation))
			}
		})
	}
}

func TestUser_HasID(t *testing.T) {
	u := validUser()
	assert.False(t, u.HasID())
	u.ID = 7
	assert.True(t, u.HasID())
}

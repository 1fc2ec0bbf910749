package model

import (
	"fmt"
	"strings"
)

// Profile is the account of the signed-in user.
type Profile struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Normalize trims the free-text fields.
func (p Profile) Normalize() Profile {
	p.Email = strings.TrimSpace(p.Email)
	p.Username = strings.TrimSpace(p.Username)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	return p
}

// Validate reports whether the profile identifies an account.
func (p Profile) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("profile has no id")
	}
	if p.Email == "" && p.Username == "" {
		return fmt.Errorf("profile %s has neither email nor username", p.ID)
	}
	return nil
}

// Name is the full name, falling back to the username and then the email.
func (p Profile) Name() string {
	if full := strings.TrimSpace(p.FirstName + " " + p.LastName); full != "" {
		return full
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

package models

import "time"

// User is a resolved identity. Email is the unique key; Username is derived
// once at creation and stays stable afterwards.
type User struct {
	ID          string
	Email       string
	Username    string
	DisplayName string
	Image       *string
	Provider    string
	ProviderID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLogin   *time.Time
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Principal is a verified identity assertion from the login provider.
// Only Email is required.
type Principal struct {
	Email      string
	Name       string
	Username   string
	Provider   string
	ProviderID string
	Image      string
}

// UserPatch carries administratively edited user fields; nil means "keep".
type UserPatch struct {
	Username    *string
	DisplayName *string
	Image       *string
}

// Recipient is the denormalized recipient pointer found on ledger rows.
type Recipient struct {
	Email    string
	Username string
}

package model

import "strings"

// Profile holds the identity signals for the single user the watcher
// serves. It is created once at first run and only changed through the
// explicit profile-update flow.
type Profile struct {
	// Name is the user's full name as it appears in shortlists.
	Name string `json:"name"`

	// RegistrationNumber is the institutional registration number,
	// e.g. "22BCE2382".
	RegistrationNumber string `json:"registration_number"`

	// GmailAddress is the account the watcher polls.
	GmailAddress string `json:"gmail_address"`

	// PersonalEmail is a secondary address that may appear in lists.
	PersonalEmail string `json:"personal_email"`

	// PhoneNumber is kept for notification integrations.
	PhoneNumber string `json:"phone_number"`
}

// HasIdentity reports whether the profile carries at least one signal
// that matching can use. With neither a name nor a registration number
// every match degrades to NO_MATCH.
func (p Profile) HasIdentity() bool {
	return strings.TrimSpace(p.Name) != "" ||
		strings.TrimSpace(p.RegistrationNumber) != ""
}

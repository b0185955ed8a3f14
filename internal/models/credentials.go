package models

// Credentials is the single admin record. Password is only populated when
// reading a legacy clear-text file.
type Credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Password     string `json:"password,omitempty"`
}

type ProfileResponse struct {
	Username string `json:"username"`
}

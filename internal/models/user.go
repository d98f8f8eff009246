package models

// User is an operator account allowed to manage sensor descriptors and read the event log.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

package models

// User is the directory view of an account. The user service owns accounts;
// this service only consumes ids and display fields.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

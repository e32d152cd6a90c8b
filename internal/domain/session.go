package domain

// Claims is the identity carried by a session token.
type Claims struct {
	UserID   string
	Username string
	Email    string
}

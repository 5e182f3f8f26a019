package model

// AuthSession is the payload returned by register, login and refresh.
// ExpiresIn advertises the access token lifetime in seconds and is
// derived from the configured TTL, the same value the token is
// actually signed with.
type AuthSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         AuthUserPart `json:"user"`
}

// AuthUserPart is the subset of user fields embedded in an AuthSession.
type AuthUserPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

package service

// RememberMe is what a login hands back besides the session token: either
// NoRememberMe or a RememberMeCookie.
type RememberMe interface {
	isRememberMe()
}

// NoRememberMe means no login cookie was issued.
type NoRememberMe struct{}

// RememberMeCookie carries a freshly issued or rotated login cookie.
type RememberMeCookie struct {
	SeriesIdentifier string
	CookieToken      string
}

func (NoRememberMe) isRememberMe()     {}
func (RememberMeCookie) isRememberMe() {}

// IssuedCredentials is returned by every operation that creates a session.
type IssuedCredentials struct {
	SessionToken string
	RememberMe   RememberMe
}

// Cookie returns the remember-me cookie, if one was issued.
func (c *IssuedCredentials) Cookie() (RememberMeCookie, bool) {
	cookie, ok := c.RememberMe.(RememberMeCookie)
	return cookie, ok
}

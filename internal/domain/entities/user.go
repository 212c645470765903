package entities

// User is the signed-in user of a backend. Token and RefreshToken are
// replaced in place when the access token is refreshed. DatabaseName and
// APIRoot tie the stored session to one repository on one host.
type User struct {
	BackendName  string `json:"backendName"`
	DatabaseName string `json:"databaseName"`
	APIRoot      string `json:"apiRoot"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Login        string `json:"login"`
	Email        string `json:"email"`
	AvatarURL    string `json:"avatarURL"`
	ProfileURL   string `json:"profileURL"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// DisplayName returns the name, falling back to the login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// SignInOptions selects how a backend obtains its credentials.
type SignInOptions struct {
	// Token is injected directly (personal access token, CI token).
	Token string
	// Interactive starts the browser based authorization flow when no token is given.
	Interactive bool
	// OpenURL presents the authorization URL to the user. Nil means log it.
	OpenURL func(authURL string) error
}

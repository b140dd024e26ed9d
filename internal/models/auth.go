package models

// User is the identity returned by the provider's userinfo endpoint
type User struct {
	Subject string `json:"sub" example:"auth0|64b7f0c2"`
	Name    string `json:"name,omitempty" example:"Maria Souza"`
	Email   string `json:"email,omitempty" example:"maria@alado.com.br"`
	Picture string `json:"picture,omitempty"`
}

// AuthState carries the identity signals the pages branch on
type AuthState struct {
	IsAuthenticated bool
	IsLoading       bool
	Error           error
	User            *User
}

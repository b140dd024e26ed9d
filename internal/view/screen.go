// Package view turns identity signals, records and edit state into pages.
package view

import (
	"github.com/nexconsult/controle-cte/internal/models"
)

// Screen is one of the top-level pages
type Screen string

const (
	ScreenLoading      Screen = "loading"
	ScreenAccessDenied Screen = "access_denied"
	ScreenLogin        Screen = "login"
	ScreenTable        Screen = "table"
)

// SelectScreen picks the page for the identity signals. Loading wins over
// everything, then an identity error, then the login prompt.
func SelectScreen(state models.AuthState) Screen {
	switch {
	case state.IsLoading:
		return ScreenLoading
	case state.Error != nil:
		return ScreenAccessDenied
	case !state.IsAuthenticated:
		return ScreenLogin
	default:
		return ScreenTable
	}
}

// Template returns the template name of the screen
func (s Screen) Template() string {
	return string(s) + ".html"
}

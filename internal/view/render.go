package view

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/nexconsult/controle-cte/internal/models"
)

// Title is the page title of the table screen
const Title = "Controle CTE - Alado"

// LoadingRefreshSeconds is how often the loading page reloads itself
const LoadingRefreshSeconds = 2

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data every page template receives
type Page struct {
	Title          string
	RefreshSeconds int
	User           *models.User
	Table          Table
}

// Templates parses the embedded page templates. Each page is looked up by
// its file name, see Screen.Template.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Static returns the embedded stylesheet and images
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewPage builds the data of screen. The table is only used by ScreenTable.
func NewPage(screen Screen, state models.AuthState, table Table) Page {
	page := Page{Title: Title, User: state.User}
	switch screen {
	case ScreenLoading:
		page.RefreshSeconds = LoadingRefreshSeconds
	case ScreenTable:
		page.Table = table
	}
	return page
}

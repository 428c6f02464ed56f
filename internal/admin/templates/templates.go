// Package templates renders the admin pages.
package templates

import (
	"embed"
	"html/template"
	"io"

	"nowas_backend/internal/leads/transport"
)

//go:embed *.html
var files embed.FS

var (
	loginPage     = template.Must(template.ParseFS(files, "login.html"))
	dashboardPage = template.Must(template.ParseFS(files, "dashboard.html"))
)

// StatusOption is one entry of the status selector.
type StatusOption struct {
	Value string
	Label string
}

// LoginData feeds the login form.
type LoginData struct {
	Error     string
	CSRFField template.HTML
}

// DashboardData feeds the lead table.
type DashboardData struct {
	Leads     []transport.LeadRow
	Statuses  []StatusOption
	CSRFField template.HTML
}

// Login writes the login page.
func Login(w io.Writer, data LoginData) error {
	return loginPage.Execute(w, data)
}

// Dashboard writes the lead table.
func Dashboard(w io.Writer, data DashboardData) error {
	return dashboardPage.Execute(w, data)
}

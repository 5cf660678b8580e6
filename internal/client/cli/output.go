package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

const dateLayout = "2006-01-02"

// withSpinner runs fn behind a spinner on stderr unless the app is quiet.
func withSpinner[T any](a *App, suffix string, fn func() (T, error)) (T, error) {
	if a.quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()

	return fn()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func orDash(s string) string {
	if s == "" {
		return text.FgHiBlack.Sprint("-")
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgYellow.Sprint("no")
}

func renderUser(w io.Writer, u *models.User) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})

	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	lastSeen := ""
	if u.LastSeenAt != nil {
		lastSeen = u.LastSeenAt.Local().Format(time.DateTime)
	}

	t.AppendRows([]table.Row{
		{"Name", orDash(u.Name())},
		{"ID", u.ID},
		{"Phone", orDash(u.PhoneNumber)},
		{"Email", orDash(email)},
		{"Email verified", yesNo(u.EmailVerified)},
		{"Sign-in method", string(u.PrimaryAuthMethod)},
		{"Status", string(u.Status)},
		{"Profiles", len(u.Profiles)},
		{"Last seen", orDash(lastSeen)},
	})
	t.Render()
}

func renderProfiles(w io.Writer, profiles []models.Profile) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Display name", "First name", "Last name", "Gender", "Born"})
	for _, p := range profiles {
		born := ""
		if !p.DateOfBirth.IsZero() {
			born = p.DateOfBirth.Format(dateLayout)
		}
		t.AppendRow(table.Row{p.ID, orDash(p.DisplayName), orDash(p.FirstName), orDash(p.LastName), orDash(string(p.Gender)), orDash(born)})
	}
	t.SetCaption("%d profile(s)", len(profiles))
	t.Render()
}

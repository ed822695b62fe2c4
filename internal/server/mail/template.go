package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

// VerificationSubject is the subject line of verification emails.
const VerificationSubject = "Your Email Verification Code"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// VerificationData fills the verification template.
type VerificationData struct {
	FirstName string
	LastName  string
	Code      string
	ValidFor  time.Duration
}

// VerificationEmail renders the verification message for to.
func VerificationEmail(to string, data VerificationData) (Message, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "verification.html", struct {
		VerificationData
		ValidMinutes int
	}{data, int(data.ValidFor.Minutes())})
	if err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		To:       to,
		ToName:   data.FirstName + " " + data.LastName,
		Subject:  VerificationSubject,
		HTMLBody: buf.String(),
	}, nil
}

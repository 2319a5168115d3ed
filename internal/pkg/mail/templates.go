package mail

import (
	"bytes"
	"context"
	"embed"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

var engine = newEngine()

func newEngine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	e := html.NewFileSystem(http.FS(sub), ".html")
	e.AddFunc("paragraphs", paragraphs)
	return e
}

// Render turns an email component into an HTML string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// page wraps one template in the shared email layout.
func page(name, title string, data fiber.Map) templ.Component {
	data["Title"] = title
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return engine.Render(w, name, data, "layouts/email")
	})
}

// paragraphs splits plain text on newlines, dropping blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func PasswordReset(name, link string) templ.Component {
	return page("password_reset", "Password Reset Request", fiber.Map{"Name": name, "Link": link})
}

// RSVPConfirmation is the ticket email.
func RSVPConfirmation(name, eventTitle, when, location, ticketID string) templ.Component {
	return page("rsvp_confirmation", "You're registered: "+eventTitle, fiber.Map{
		"Name":     name,
		"Event":    eventTitle,
		"When":     when,
		"Location": location,
		"Ticket":   ticketID,
	})
}

func RSVPCancelled(name, eventTitle string) templ.Component {
	return page("rsvp_cancelled", "RSVP cancelled", fiber.Map{"Name": name, "Event": eventTitle})
}

// ContactInquiry goes to the admin inbox.
func ContactInquiry(name, email, topic, message string) templ.Component {
	return page("contact_inquiry", "New Inquiry: "+topic, fiber.Map{
		"Name":    name,
		"Email":   email,
		"Message": message,
	})
}

func ContactConfirmation(name, topic string) templ.Component {
	return page("contact_confirmation", "We received your message", fiber.Map{"Name": name, "Topic": topic})
}

func ApplicationApproved(name, role string) templ.Component {
	return page("application_approved", "Application Approved: "+role, fiber.Map{"Name": name, "Role": role})
}

func Promotion(name, loginURL string) templ.Component {
	return page("promotion", "You've been promoted to Moderator at OSOV", fiber.Map{"Name": name, "LoginURL": loginURL})
}

func Newsletter(subject, body, unsubscribeURL string) templ.Component {
	return page("newsletter", subject, fiber.Map{"Body": body, "UnsubscribeURL": unsubscribeURL})
}

package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/thenamerahulkr/cems/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	HTML      string
	Text      string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var funcs = template.FuncMap{
	// safeURL lets inline QR images through html/template's URL filter.
	"safeURL": func(v interface{}) template.URL {
		s, _ := v.(string)
		if strings.HasPrefix(s, "data:image/png;base64,") {
			return template.URL(s)
		}
		return ""
	},
}

var kinds = []domain.MailKind{
	domain.MailWelcome,
	domain.MailRegistrationConfirmed,
	domain.MailPaymentConfirmed,
	domain.MailOrganizerApproved,
	domain.MailOrganizerRejected,
	domain.MailEventReminder,
}

type Renderer struct {
	templates map[domain.MailKind]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[domain.MailKind]*template.Template, len(kinds))}

	for _, kind := range kinds {
		t, err := template.New(string(kind)).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+string(kind)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("template.ParseFS %s -> %w", kind, err)
		}
		r.templates[kind] = t
	}

	return r, nil
}

// Render builds the message for an outbox entry.
func (r *Renderer) Render(msg domain.OutboxMessage) (Message, error) {
	t, ok := r.templates[msg.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for mail kind %q", msg.Kind)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", msg.Payload); err != nil {
		return Message{}, fmt.Errorf("t.ExecuteTemplate %s -> %w", msg.Kind, err)
	}

	name, _ := msg.Payload["name"].(string)

	return Message{
		ToName:    name,
		ToAddress: msg.Recipient,
		Subject:   msg.Subject,
		HTML:      buf.String(),
		Text:      msg.Subject,
	}, nil
}

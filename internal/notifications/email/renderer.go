package email

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// RenderedEmail is the pre-rendered content handed to the provider.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
	BodyText string
}

// statusTemplate pairs the subject line and body text for one workflow
// transition.
type statusTemplate struct {
	subject string
	body    string
}

// Templates keyed by the book's new status. Unlisted statuses fall back to
// defaultTemplate.
var statusTemplates = map[events.BookStatus]statusTemplate{
	events.StatusSubmitted: {
		subject: `"{{.Title}}" submitted for editing`,
		body: `The book "{{.Title}}" by {{.Author}} was submitted for editing by {{.ChangedBy}}.
{{- if .ChangeReason}}

Reason: {{.ChangeReason}}{{end}}`,
	},
	events.StatusReady: {
		subject: `"{{.Title}}" is ready for publication`,
		body: `The book "{{.Title}}" by {{.Author}} was approved by {{.ChangedBy}} and is ready for publication.
{{- if .ChangeReason}}

Reason: {{.ChangeReason}}{{end}}`,
	},
	events.StatusPublished: {
		subject: `"{{.Title}}" has been published`,
		body: `The book "{{.Title}}" by {{.Author}} was published by {{.ChangedBy}}.
{{- if .ChangeReason}}

Reason: {{.ChangeReason}}{{end}}`,
	},
	events.StatusDraft: {
		subject: `"{{.Title}}" returned to draft`,
		body: `The book "{{.Title}}" by {{.Author}} was moved back to draft by {{.ChangedBy}}.
{{- if .ChangeReason}}

Reason: {{.ChangeReason}}{{end}}`,
	},
}

var defaultTemplate = statusTemplate{
	subject: `"{{.Title}}" status changed to {{.NewStatus}}`,
	body: `The book "{{.Title}}" by {{.Author}} changed status{{if .PreviousStatus}} from {{.PreviousStatus}}{{end}} to {{.NewStatus}}.
Changed by: {{.ChangedBy}}
{{- if .ChangeReason}}
Reason: {{.ChangeReason}}{{end}}`,
}

// Renderer produces email content for book status change events. Templates
// are parsed once at construction; rendering never performs I/O.
type Renderer struct {
	subjects map[events.BookStatus]*template.Template
	bodies   map[events.BookStatus]*template.Template
	defSubj  *template.Template
	defBody  *template.Template
}

// NewRenderer parses the built-in template set. An error here is a
// programming mistake and should fail startup.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		subjects: make(map[events.BookStatus]*template.Template, len(statusTemplates)),
		bodies:   make(map[events.BookStatus]*template.Template, len(statusTemplates)),
	}

	var err error
	for status, tmpl := range statusTemplates {
		if r.subjects[status], err = template.New("subject").Parse(tmpl.subject); err != nil {
			return nil, fmt.Errorf("email: parse subject template for %s: %w", status, err)
		}
		if r.bodies[status], err = template.New("body").Parse(tmpl.body); err != nil {
			return nil, fmt.Errorf("email: parse body template for %s: %w", status, err)
		}
	}

	if r.defSubj, err = template.New("subject").Parse(defaultTemplate.subject); err != nil {
		return nil, fmt.Errorf("email: parse default subject template: %w", err)
	}
	if r.defBody, err = template.New("body").Parse(defaultTemplate.body); err != nil {
		return nil, fmt.Errorf("email: parse default body template: %w", err)
	}

	return r, nil
}

// Render produces the subject and body for the given event. Unknown statuses
// use the generic template rather than failing; a malformed event reaching
// this point has already passed structural validation.
func (r *Renderer) Render(ev *events.Event) (RenderedEmail, error) {
	subjTmpl, ok := r.subjects[ev.Data.NewStatus]
	if !ok {
		subjTmpl = r.defSubj
	}
	bodyTmpl, ok := r.bodies[ev.Data.NewStatus]
	if !ok {
		bodyTmpl = r.defBody
	}

	var subject, body strings.Builder
	if err := subjTmpl.Execute(&subject, ev.Data); err != nil {
		return RenderedEmail{}, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to render email subject", err)
	}
	if err := bodyTmpl.Execute(&body, ev.Data); err != nil {
		return RenderedEmail{}, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to render email body", err)
	}

	return RenderedEmail{
		Subject:  subject.String(),
		BodyText: body.String(),
	}, nil
}

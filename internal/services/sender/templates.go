package sender

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/mail"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

//go:embed templates/*.liquid
var templateFS embed.FS

type emailTemplate struct {
	subject *liquid.Template
	html    *liquid.Template
	text    *liquid.Template
}

// Renderer собирает письма из шаблонов Liquid.
type Renderer struct {
	siteURL   string
	templates map[models.NotificationKind]emailTemplate
}

// NewRenderer разбирает встроенные шаблоны всех видов уведомлений.
func NewRenderer(siteURL string) (*Renderer, error) {
	const op = "sender.NewRenderer"
	engine := liquid.NewEngine()
	r := &Renderer{
		siteURL:   strings.TrimRight(siteURL, "/"),
		templates: make(map[models.NotificationKind]emailTemplate),
	}

	kinds := []models.NotificationKind{
		models.NotificationWelcome,
		models.NotificationUnsubscribed,
		models.NotificationArticle,
	}
	for _, kind := range kinds {
		var tpl emailTemplate
		for _, part := range []struct {
			name string
			dst  **liquid.Template
		}{
			{"subject", &tpl.subject},
			{"html", &tpl.html},
			{"text", &tpl.text},
		} {
			file := fmt.Sprintf("templates/%s.%s.liquid", kind, part.name)
			src, err := templateFS.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			parsed, perr := engine.ParseString(string(src))
			if perr != nil {
				return nil, fmt.Errorf("%s: %s: %w", op, file, perr)
			}
			*part.dst = parsed
		}
		r.templates[kind] = tpl
	}
	return r, nil
}

// Render возвращает письмо для уведомления n.
func (r *Renderer) Render(n models.Notification) (mail.Message, error) {
	const op = "sender.Render"
	tpl, ok := r.templates[n.Kind]
	if !ok {
		return mail.Message{}, fmt.Errorf("%s: unknown notification kind %q", op, n.Kind)
	}
	if n.Kind == models.NotificationArticle && n.Article == nil {
		return mail.Message{}, fmt.Errorf("%s: article notification without article", op)
	}

	bindings := r.bindings(n)
	subject, err := tpl.subject.RenderString(bindings)
	if err != nil {
		return mail.Message{}, fmt.Errorf("%s: subject: %w", op, err)
	}
	html, err := tpl.html.RenderString(bindings)
	if err != nil {
		return mail.Message{}, fmt.Errorf("%s: html: %w", op, err)
	}
	text, err := tpl.text.RenderString(bindings)
	if err != nil {
		return mail.Message{}, fmt.Errorf("%s: text: %w", op, err)
	}

	msg := mail.Message{
		To:      n.Email,
		Subject: strings.TrimSpace(subject),
		HTML:    html,
		Text:    text,
	}
	if n.Kind != models.NotificationUnsubscribed {
		msg.UnsubscribeURL = n.UnsubscribeURL
	}
	return msg, nil
}

func (r *Renderer) bindings(n models.Notification) liquid.Bindings {
	b := liquid.Bindings{
		"name":            n.Name,
		"email":           n.Email,
		"site_url":        r.siteURL,
		"unsubscribe_url": n.UnsubscribeURL,
		"resubscribe_url": n.ResubscribeURL,
	}
	if n.ResubscribeURL == "" {
		b["resubscribe_url"] = r.siteURL + "/newsletter"
	}
	if a := n.Article; a != nil {
		url := a.URL
		if url == "" {
			url = r.siteURL + "/insights/" + a.Slug
		}
		published := ""
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.Format(time.DateOnly)
		}
		b["article"] = map[string]any{
			"title":        a.Title,
			"slug":         a.Slug,
			"excerpt":      a.Excerpt,
			"url":          url,
			"author":       a.Author,
			"category":     a.Category,
			"published_at": published,
		}
	}
	return b
}

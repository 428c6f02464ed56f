package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*
var templateFS embed.FS

var (
	baseTemplate = template.Must(template.ParseFS(templateFS, "templates/base.html"))
	leadTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/lead_notification.md"))

	// Raw HTML in the Markdown source is escaped because WithUnsafe is not set.
	mdRenderer = goldmark.New(
		goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
	)

	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`",
		"[", `\[`, "]", `\]`, "#", `\#`, "<", `\<`, ">", `\>`,
		"-", `\-`, "+", `\+`, "=", `\=`, ".", `\.`, ")", `\)`,
		"|", `\|`, "~", `\~`, "!", `\!`, "&", `\&`,
	)
)

// markdownInline escapes user text for a list item value. Each line is
// trimmed and indented under the item so no line can open a new block.
func markdownInline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := make([]string, 0, 1)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, markdownEscaper.Replace(line))
	}
	return strings.Join(lines, "\n  ")
}

// madridTZ is where the gym is. Falls back to UTC if tzdata is missing.
var madridTZ = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}()

type baseEmailData struct {
	Title string
	Body  template.HTML
}

// Message is a rendered email ready for any transport.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// ComposeLeadNotification renders the subject, plain-text body and HTML body
// for a new lead.
func ComposeLeadNotification(n LeadNotification) (Message, error) {
	subject := fmt.Sprintf(subjectNewDemoFmt, n.Name)

	text := fmt.Sprintf("Nombre: %s\nTeléfono: %s\nEmail: %s\nNota: %s\n", n.Name, n.Phone, n.Email, n.Note)

	var md bytes.Buffer
	err := leadTemplate.Execute(&md, map[string]string{
		"Name":        markdownInline(n.Name),
		"Phone":       markdownInline(n.Phone),
		"Email":       markdownInline(n.Email),
		"Note":        markdownInline(n.Note),
		"SubmittedAt": n.SubmittedAt.In(madridTZ).Format("02/01/2006 15:04"),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render lead markdown: %w", err)
	}

	var body bytes.Buffer
	if err := mdRenderer.Convert(md.Bytes(), &body); err != nil {
		return Message{}, fmt.Errorf("convert lead markdown: %w", err)
	}

	var html bytes.Buffer
	if err := baseTemplate.ExecuteTemplate(&html, "email", baseEmailData{
		Title: subject,
		Body:  template.HTML(body.String()),
	}); err != nil {
		return Message{}, fmt.Errorf("execute email template: %w", err)
	}

	return Message{Subject: subject, Text: text, HTML: html.String()}, nil
}

// Package render writes the frame document a card client reads its next
// screen from.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"eip-explainer/internal/domain"
	"eip-explainer/internal/statecodec"
)

const (
	FrameVersion       = "vNext"
	DefaultAspectRatio = "1.91:1"

	defaultTitle       = "EIP Explainer"
	defaultDescription = "Explain Ethereum Improvement Proposals"
	maxImageTextRunes  = 1024
)

var frameTemplate = template.Must(template.New("frame").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta property="fc:frame" content="{{.Version}}" />
    <meta property="fc:frame:image" content="{{.ImageURL}}" />
    <meta property="fc:frame:image:aspect_ratio" content="{{.AspectRatio}}" />
    <meta property="og:title" content="{{.Title}}" />
    <meta property="og:description" content="{{.Description}}" />
{{- range .Buttons}}
    <meta property="fc:frame:button:{{.Index}}" content="{{.Label}}" />
{{- if .Action}}
    <meta property="fc:frame:button:{{.Index}}:action" content="{{.Action}}" />
{{- end}}
{{- end}}
{{- if .InputText}}
    <meta property="fc:frame:input:text" content="{{.InputText}}" />
{{- end}}
    <meta property="fc:frame:post_url" content="{{.PostURL}}" />
    <meta property="fc:frame:state" content="{{.State}}" />
  </head>
</html>
`))

type button struct {
	Index  int
	Label  string
	Action string
}

type frameData struct {
	Version     string
	ImageURL    string
	AspectRatio string
	Title       string
	Description string
	Buttons     []button
	InputText   string
	PostURL     string
	State       string
}

// Renderer knows the public host the frame is served from.
type Renderer struct {
	host string
}

func New(host string) (*Renderer, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, errors.New("render: host must not be empty")
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("render: host %q is not an absolute URL", host)
	}
	return &Renderer{host: host}, nil
}

// PostURL is where the client sends the next callback.
func (r *Renderer) PostURL() string {
	return r.host + "/api/frame"
}

// ImageURL is the generated card for text.
func (r *Renderer) ImageURL(text string) string {
	if rs := []rune(text); len(rs) > maxImageTextRunes {
		text = string(rs[:maxImageTextRunes-1]) + "…"
	}
	return r.host + "/api/og?text=" + url.QueryEscape(text)
}

// Render writes p as a frame document. Every value is attribute-escaped by
// html/template.
func (r *Renderer) Render(w io.Writer, p domain.Presentation) error {
	data := frameData{
		Version:     FrameVersion,
		AspectRatio: DefaultAspectRatio,
		Title:       firstNonEmpty(p.Title, defaultTitle),
		Description: firstNonEmpty(p.Description, defaultDescription),
		InputText:   p.InputPrompt,
		PostURL:     r.PostURL(),
		State:       statecodec.Encode(p.State),
	}
	if p.Image != nil && p.Image.URL != "" {
		data.ImageURL = p.Image.URL
		if p.Image.AspectRatio != "" {
			data.AspectRatio = p.Image.AspectRatio
		}
	} else {
		data.ImageURL = r.ImageURL(firstNonEmpty(p.Description, p.Title, defaultTitle))
	}
	for i, c := range p.Choices {
		data.Buttons = append(data.Buttons, button{Index: i + 1, Label: c.Label, Action: string(c.Role)})
	}

	if err := frameTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render: execute frame template: %w", err)
	}
	return nil
}

// String renders p into a string.
func (r *Renderer) String(p domain.Presentation) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

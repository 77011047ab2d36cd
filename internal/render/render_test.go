package render

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"eip-explainer/internal/domain"
	"eip-explainer/internal/statecodec"
)

// metaTags parses doc and returns property → content for every <meta>, plus
// the properties in document order.
func metaTags(t *testing.T, doc string) (map[string]string, []string) {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	tags := map[string]string{}
	var order []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var prop, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "property":
					prop = a.Val
				case "content":
					content = a.Val
				}
			}
			tags[prop] = content
			order = append(order, prop)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return tags, order
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New("https://eip.example.com/")
	require.NoError(t, err)
	return r
}

func TestNew_ValidatesHost(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	_, err = New("not a url")
	require.Error(t, err)
}

func TestRender_FrameTags(t *testing.T) {
	r := newTestRenderer(t)
	doc, err := r.String(domain.Presentation{
		Title:       "EIP-1559",
		Description: "Choose how you would like this EIP explained:",
		Choices:     []domain.Choice{{Label: "Simple"}, {Label: "Detailed"}, {Label: "Enter", Role: domain.RoleInput}},
		InputPrompt: "Enter EIP number (e.g. 1559)",
		State:       domain.ModeSelectState("1559", "text"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))

	tags, order := metaTags(t, doc)
	require.Equal(t, "vNext", tags["fc:frame"])
	require.Equal(t, "1.91:1", tags["fc:frame:image:aspect_ratio"])
	require.Equal(t, "EIP-1559", tags["og:title"])
	require.Equal(t, "Simple", tags["fc:frame:button:1"])
	require.Equal(t, "Detailed", tags["fc:frame:button:2"])
	require.Equal(t, "Enter", tags["fc:frame:button:3"])
	require.Equal(t, "input", tags["fc:frame:button:3:action"])
	require.NotContains(t, tags, "fc:frame:button:1:action")
	require.NotContains(t, tags, "fc:frame:button:4")
	require.Equal(t, "Enter EIP number (e.g. 1559)", tags["fc:frame:input:text"])
	require.Equal(t, "https://eip.example.com/api/frame", tags["fc:frame:post_url"])

	require.Equal(t, domain.ModeSelectState("1559", "text"), statecodec.Decode(json.RawMessage(tags["fc:frame:state"])))

	var buttons []string
	for _, p := range order {
		if strings.HasPrefix(p, "fc:frame:button:") && !strings.HasSuffix(p, ":action") {
			buttons = append(buttons, p)
		}
	}
	require.Equal(t, []string{"fc:frame:button:1", "fc:frame:button:2", "fc:frame:button:3"}, buttons)
}

func TestRender_EscapesUpstreamText(t *testing.T) {
	hostile := `"/><script>alert(1)</script><meta property="fc:frame:button:9" content="x`
	r := newTestRenderer(t)
	doc, err := r.String(domain.Presentation{
		Title:       "EIP-1 & friends",
		Description: hostile,
		Choices:     []domain.Choice{{Label: "Try Another EIP"}},
		State:       domain.ModeSelectState("1", hostile),
	})
	require.NoError(t, err)
	require.NotContains(t, doc, "<script>")

	tags, _ := metaTags(t, doc)
	require.Equal(t, hostile, tags["og:description"])
	require.Equal(t, "EIP-1 & friends", tags["og:title"])
	require.NotContains(t, tags, "fc:frame:button:9")
	require.Equal(t, hostile, statecodec.Decode(json.RawMessage(tags["fc:frame:state"])).ResolvedContent)
}

func TestRender_PlaceholderImageFromDescription(t *testing.T) {
	r := newTestRenderer(t)
	doc, err := r.String(domain.Presentation{Title: "EIP Explainer", Description: "Enter an EIP number"})
	require.NoError(t, err)

	tags, _ := metaTags(t, doc)
	u, err := url.Parse(tags["fc:frame:image"])
	require.NoError(t, err)
	require.Equal(t, "/api/og", u.Path)
	require.Equal(t, "Enter an EIP number", u.Query().Get("text"))
}

func TestRender_PlaceholderImageFallsBackToTitle(t *testing.T) {
	r := newTestRenderer(t)
	require.Equal(t, "https://eip.example.com/api/og?text=EIP+Explainer", r.ImageURL("EIP Explainer"))

	doc, err := r.String(domain.Presentation{})
	require.NoError(t, err)
	tags, _ := metaTags(t, doc)
	u, err := url.Parse(tags["fc:frame:image"])
	require.NoError(t, err)
	require.Equal(t, "EIP Explainer", u.Query().Get("text"))
	require.Equal(t, "Explain Ethereum Improvement Proposals", tags["og:description"])
}

func TestRender_ExplicitImage(t *testing.T) {
	r := newTestRenderer(t)
	doc, err := r.String(domain.Presentation{Image: &domain.Image{URL: "https://cdn.example.com/card.png", AspectRatio: "1:1"}})
	require.NoError(t, err)
	tags, _ := metaTags(t, doc)
	require.Equal(t, "https://cdn.example.com/card.png", tags["fc:frame:image"])
	require.Equal(t, "1:1", tags["fc:frame:image:aspect_ratio"])
}

func TestImageURL_CapsLongText(t *testing.T) {
	r := newTestRenderer(t)
	u, err := url.Parse(r.ImageURL(strings.Repeat("é", 5000)))
	require.NoError(t, err)
	require.Len(t, []rune(u.Query().Get("text")), maxImageTextRunes)
}

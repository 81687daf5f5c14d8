package shopify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/pkg/constants"
)

// resource is the decoded Admin API shape shared by products, pages and
// custom collections. Only the fields the crawler needs are mapped.
type resource struct {
	ID       int64  `json:"id"`
	Handle   string `json:"handle"`
	Title    string `json:"title"`
	BodyHTML string `json:"body_html"`
}

func (r resource) id() int64 { return r.ID }

func (r resource) toRaw() rawResource {
	return rawResource{
		id:     r.ID,
		handle: r.Handle,
		title:  r.Title,
		body:   r.BodyHTML,
	}
}

// rawResource is the normalized form carried while paging
type rawResource struct {
	id     int64
	handle string
	title  string
	body   string
}

func (r rawResource) toEntity(shopDomain, scopeType string) ports.StorefrontEntity {
	return ports.StorefrontEntity{
		ScopeType:   scopeType,
		ScopeID:     strconv.FormatInt(r.id, 10),
		Handle:      r.handle,
		Title:       r.title,
		Description: excerpt(stripTags(r.body), 300),
		Body:        r.body,
		URL:         entityURL(shopDomain, scopeType, r.handle),
	}
}

// entityURL builds the public storefront URL for an entity
func entityURL(shopDomain, scopeType, handle string) string {
	var base string
	switch scopeType {
	case constants.ScopeProduct:
		base = "products"
	case constants.ScopePage:
		base = "pages"
	case constants.ScopeCollection:
		base = "collections"
	default:
		base = scopeType + "s"
	}
	return fmt.Sprintf("https://%s/%s/%s", shopDomain, base, handle)
}

// stripTags removes HTML markup, leaving the visible text. Shopify bodies
// are trusted store-authored HTML so a simple tag scan is enough.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// excerpt truncates text at a word boundary near max runes
func excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

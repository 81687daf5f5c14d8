package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engineo/backend/pkg/constants"
)

// stubTransport answers Admin API requests from a canned path -> body map
type stubTransport struct {
	responses map[string]string
	requests  []*http.Request
	bodies    []string
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	} else {
		s.bodies = append(s.bodies, "")
	}

	key := req.URL.Path
	if req.URL.RawQuery != "" {
		key += "?" + req.URL.RawQuery
	}
	body, ok := s.responses[key]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewBufferString(`{"errors":"Not Found"}`)),
			Header:     make(http.Header),
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}, nil
}

func newTestClient(responses map[string]string) (*Client, *stubTransport) {
	transport := &stubTransport{responses: responses}
	c := NewClient("test-shop.myshopify.com", "shpat_test_token")
	c.HTTPClient = &http.Client{Transport: transport}
	return c, transport
}

func TestListEntitiesWithSEOMetafields(t *testing.T) {
	client, transport := newTestClient(map[string]string{
		"/admin/api/2024-07/products.json?limit=250&since_id=0": `{"products":[
			{"id":101,"handle":"blue-shirt","title":"Blue Shirt","body_html":"<p>Soft cotton tee</p>"},
			{"id":102,"handle":"red-shirt","title":"Red Shirt","body_html":""}
		]}`,
		"/admin/api/2024-07/products/101/metafields.json?namespace=global": `{"metafields":[
			{"key":"title_tag","value":"Blue Shirt | Store"},
			{"key":"description_tag","value":"A soft cotton tee."}
		]}`,
		"/admin/api/2024-07/products/102/metafields.json?namespace=global": `{"metafields":[]}`,
	})

	entities, err := client.ListEntities(context.Background(), constants.ScopeProduct)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, "101", entities[0].ScopeID)
	assert.Equal(t, "blue-shirt", entities[0].Handle)
	assert.Equal(t, "Blue Shirt | Store", entities[0].SeoTitle)
	assert.Equal(t, "A soft cotton tee.", entities[0].SeoDescription)
	assert.Equal(t, "Soft cotton tee", entities[0].Description)
	assert.Equal(t, "https://test-shop.myshopify.com/products/blue-shirt", entities[0].URL)

	assert.Equal(t, "102", entities[1].ScopeID)
	assert.Empty(t, entities[1].SeoTitle)

	// Token header rides on every request
	for _, req := range transport.requests {
		assert.Equal(t, "shpat_test_token", req.Header.Get(constants.HeaderShopifyToken))
	}
}

func TestGetEntityByHandleGone(t *testing.T) {
	client, _ := newTestClient(map[string]string{
		"/admin/api/2024-07/products.json?handle=deleted-product&limit=1": `{"products":[]}`,
	})

	entity, err := client.GetEntityByHandle(context.Background(), constants.ScopeProduct, "deleted-product")
	assert.NoError(t, err)
	assert.Nil(t, entity)
}

func TestUpdateEntityFieldSEOTitle(t *testing.T) {
	client, transport := newTestClient(map[string]string{
		"/admin/api/2024-07/products/101.json": `{"product":{"id":101}}`,
	})

	err := client.UpdateEntityField(context.Background(), constants.ScopeProduct, "101", "seo_title", "Blue Shirt | Store")
	require.NoError(t, err)
	require.Len(t, transport.requests, 1)
	assert.Equal(t, http.MethodPut, transport.requests[0].Method)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &payload))
	assert.Equal(t, "Blue Shirt | Store", payload["product"]["metafields_global_title_tag"])
}

func TestUpdateEntityFieldUnsupported(t *testing.T) {
	client, _ := newTestClient(nil)

	err := client.UpdateEntityField(context.Background(), constants.ScopeProduct, "101", "price", "9.99")
	assert.Error(t, err)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Soft cotton tee", stripTags("<p>Soft <strong>cotton</strong> tee</p>"))
	assert.Equal(t, "plain text", stripTags("plain text"))
	assert.Equal(t, "", stripTags("<br/>"))
}

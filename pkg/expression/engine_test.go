package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crawlEnv(seoTitle, seoDescription, body string) map[string]interface{} {
	return map[string]interface{}{
		"scope_type":      "product",
		"handle":          "blue-shirt",
		"title":           "Blue Shirt",
		"description":     "Soft cotton tee.",
		"body":            body,
		"body_length":     len(body),
		"seo_title":       seoTitle,
		"seo_description": seoDescription,
	}
}

func TestEngine_Evaluate(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		rule     string
		env      map[string]interface{}
		expected interface{}
		wantErr  bool
	}{
		{
			name:     "missing seo title matches",
			rule:     `seo_title == ""`,
			env:      crawlEnv("", "", "Soft cotton tee."),
			expected: true,
		},
		{
			name:     "present seo title does not match",
			rule:     `seo_title == ""`,
			env:      crawlEnv("Blue Shirt | Store", "", ""),
			expected: false,
		},
		{
			name:     "overlong seo title",
			rule:     `seo_title != "" && len(seo_title) > 60`,
			env:      crawlEnv("Premium Organic Cotton Blue Shirt With Reinforced Double Stitching", "", ""),
			expected: true,
		},
		{
			name:     "thin body by length",
			rule:     `body_length < 200 || words(body) < 40`,
			env:      crawlEnv("", "", "Short."),
			expected: true,
		},
		{
			name:     "thin body by word count despite long markup",
			rule:     `body_length < 200 || words(body) < 40`,
			env:      crawlEnv("", "", "<div><span><strong>Shirt</strong></span></div>"+string(make([]byte, 300))),
			expected: true,
		},
		{
			name:     "full body does not match",
			rule:     `body_length < 200 || words(body) < 40`,
			env:      crawlEnv("", "", fullBody()),
			expected: false,
		},
		{
			name:    "unknown variable fails compilation",
			rule:    `meta_keywords == ""`,
			env:     crawlEnv("", "", ""),
			wantErr: true,
		},
		{
			name:    "syntax error fails compilation",
			rule:    `seo_title == `,
			env:     crawlEnv("", "", ""),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(tt.rule, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// fullBody builds a body comfortably over both thin-content thresholds
func fullBody() string {
	body := ""
	for i := 0; i < 50; i++ {
		body += "quality "
	}
	return body
}

func TestEngine_WordsFunction(t *testing.T) {
	e := NewEngine()
	env := crawlEnv("", "", "  one two   three  ")

	result, err := e.Evaluate(`words(body)`, env)
	require.NoError(t, err)
	assert.Equal(t, 3, result)

	_, err = e.Evaluate(`words(body_length)`, env)
	assert.Error(t, err, "non-string argument is rejected")
}

func TestEngine_Validate(t *testing.T) {
	e := NewEngine()
	env := crawlEnv("", "", "")

	assert.NoError(t, e.Validate(`seo_description == "" && scope_type == "product"`, env))
	assert.Error(t, e.Validate(`nonexistent_field > 10`, env))
}

func TestEngine_ProgramCache(t *testing.T) {
	e := NewEngine()
	env := crawlEnv("", "", "Short.")

	for i := 0; i < 3; i++ {
		result, err := e.Evaluate(`body_length < 200`, env)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	assert.Len(t, e.programCache, 1, "repeated evaluations reuse one compiled program")
}

package utils

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graveyard-manager/internal/schemas"
)

func newFormContext(form url.Values) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestBindAndValidateSanitizesFields(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		wantContent string
	}{
		{"Markup", "<script>alert(1)</script>Open daily", "Open daily"},
		{"EncodedMarkup", "&lt;script&gt;alert(1)&lt;/script&gt;Open daily", "Open daily"},
		{"EncodedTag", "&lt;b&gt;Open&lt;/b&gt; daily", "Open daily"},
		{"Ampersand", "Open &amp; free", "Open &amp; free"},
		{"PlainAmpersand", "Open & free", "Open &amp; free"},
		{"DoubleEncoded", "&amp;lt;b&amp;gt;Open", "&lt;b&gt;Open"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newFormContext(url.Values{
				"post_header":  {"  <b>Opening</b> hours "},
				"post_content": {tc.content},
			})

			request := &schemas.MessageRequest{}
			require.Nil(t, GetValidator().BindAndValidate(c, request))
			assert.Equal(t, "Opening hours", request.Title)
			assert.Equal(t, tc.wantContent, request.Content)
		})
	}
}

func TestBindAndValidateNeverYieldsMarkup(t *testing.T) {
	inputs := []string{
		"<<script>x</script>script>alert(1)",
		"&lt;<b>script&gt;alert(1)",
		"&#60;img src=x onerror=alert(1)&#62;",
	}

	for _, input := range inputs {
		c := newFormContext(url.Values{"post_header": {"Opening hours"}, "post_content": {input}})

		request := &schemas.MessageRequest{}
		if fieldErrors := GetValidator().BindAndValidate(c, request); fieldErrors != nil {
			continue
		}
		assert.NotContains(t, request.Content, "<", input)
		assert.NotContains(t, request.Content, ">", input)
	}
}

func TestBindAndValidateKeepsPasswords(t *testing.T) {
	c := newFormContext(url.Values{
		"email":    {"jan@example.com"},
		"password": {"<Secret>.123a"},
	})

	request := &schemas.LoginRequest{}
	require.Nil(t, GetValidator().BindAndValidate(c, request))
	assert.Equal(t, "<Secret>.123a", request.Password)
}

func TestBindAndValidateReportsFormNames(t *testing.T) {
	c := newFormContext(url.Values{
		"email":            {"jan@example.com"},
		"password":         {"Test.Password123"},
		"password_confirm": {"Test.Password123"},
		"name":             {"Jan"},
		"last_name":        {"Kowalski"},
		"city":             {"Krakow"},
		"zip_code":         {"!"},
		"street":           {"Cmentarna"},
		"house_number":     {"1"},
	})

	fieldErrors := GetValidator().BindAndValidate(c, &schemas.RegistrationRequest{})
	assert.Equal(t, []schemas.FieldErrorDTO{{Field: "zip_code", Rule: "zip_code_validation"}}, fieldErrors)
}

func TestZipCodes(t *testing.T) {
	testCases := []struct {
		zipCode string
		valid   bool
	}{
		{"30-001", true},
		{"10115", true},
		{"SW1A 1AA", true},
		{"1", false},
		{"-3000", false},
		{"30-001-000-1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.zipCode, func(t *testing.T) {
			assert.Equal(t, tc.valid, zipCodeRegex.MatchString(tc.zipCode))
		})
	}
}

package content

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound_Suggestion(t *testing.T) {
	t.Parallel()

	resp := NotFound("/about")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, ContentTypeHTML, resp.Header.Get("Content-Type"))
	assert.Contains(t, string(resp.Body), `Did you mean <a href="/about">/about</a>?`)
	assert.NotContains(t, string(resp.Body), "Sorry")
}

func TestNotFound_NoMatch(t *testing.T) {
	t.Parallel()

	resp := NotFound("")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, string(resp.Body), "Sorry, we couldn't find the page you were looking for.")
	assert.NotContains(t, string(resp.Body), "Did you mean")
}

func TestNotFound_EscapesPath(t *testing.T) {
	t.Parallel()

	body := string(NotFound(`/"><script>`).Body)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "&#34;")
}

func TestServerError(t *testing.T) {
	t.Parallel()

	resp := ServerError()
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Contains(t, string(resp.Body), "500 Internal Server Error")
}

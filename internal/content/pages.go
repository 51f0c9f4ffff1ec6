package content

import (
	"fmt"
	"html"
	"net/http"

	"github.com/vyrodovalexey/pathhint/internal/router"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
%s
</body>
</html>
`

func page(title, body string) []byte {
	return []byte(fmt.Sprintf(pageTemplate, html.EscapeString(title), body))
}

// NotFound renders the 404 page for a resolver result that is not exact.
// A non-empty suggestion is offered as a link.
func NotFound(suggestion router.RoutePath) *router.Response {
	var body string
	if suggestion == "" {
		body = "<h1>404 Not Found</h1>\n<p>Sorry, we couldn't find the page you were looking for.</p>"
	} else {
		escaped := html.EscapeString(suggestion.String())
		body = fmt.Sprintf(
			"<h1>404 Not Found</h1>\n<p>Did you mean <a href=\"%s\">%s</a>?</p>", escaped, escaped)
	}
	return router.NewResponse(http.StatusNotFound, ContentTypeHTML, page("404 Not Found", body))
}

// ServerError renders the generic 500 page. It never carries error details.
func ServerError() *router.Response {
	return router.NewResponse(http.StatusInternalServerError, ContentTypeHTML,
		page("500 Internal Server Error",
			"<h1>500 Internal Server Error</h1>\n<p>Something went wrong while handling your request.</p>"))
}

func redirectPage(location string) []byte {
	escaped := html.EscapeString(location)
	return page("Moved", fmt.Sprintf("<p>Moved to <a href=\"%s\">%s</a>.</p>", escaped, escaped))
}

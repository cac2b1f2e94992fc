package postservice

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// contentPolicy keeps user generated markup and drops scripts, handlers and unsafe URLs.
var contentPolicy = bluemonday.UGCPolicy()

func sanitizeContent(content string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(content))
}

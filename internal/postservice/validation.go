package postservice

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sushihentaime/blogpost/internal/common"
)

const maxTitleLength = 200

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(utf8.RuneCountInString(title) <= maxTitleLength, "title", fmt.Sprintf("must not be more than %d characters long", maxTitleLength))
}

// validateContent expects content that has already been sanitised.
func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateCreate(v *common.Validator, req *CreatePostRequest, content string) {
	validateTitle(v, req.Title)
	validateContent(v, content)
	v.Struct(req)
}

// validateUpdate only checks the fields that will overwrite stored values.
func validateUpdate(v *common.Validator, req *UpdatePostRequest, content string) {
	if req.Title != "" {
		validateTitle(v, req.Title)
	}
	if req.Content != "" {
		validateContent(v, content)
	}
	v.Struct(req)
}

package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*
var templateFS embed.FS

// mailParts are the named blocks every mail template defines.
var mailParts = [...]string{"subject", "plainBody", "htmlBody"}

func NewTemplate() *Template {
	return &Template{}
}

// ParseTemplate renders the subject, plain and html parts of templates/<name>.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, err := template.New(name).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not parse template %s: %w", name, err)
	}

	var parts [len(mailParts)]*bytes.Buffer
	for i, part := range mailParts {
		parts[i] = new(bytes.Buffer)
		if err := t.ExecuteTemplate(parts[i], part, data); err != nil {
			return nil, nil, nil, fmt.Errorf("could not render %s of %s: %w", part, name, err)
		}
	}

	return parts[0], parts[1], parts[2], nil
}


package post

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type fieldRule struct {
	name     string
	tag      string
	sanitize func(string) string
}

// Rules apply to the sanitized value. Content is stored as sent.
var fieldRules = []fieldRule{
	{name: "title", tag: "required,notblank,max=255", sanitize: SanitizeText},
	{name: "content", tag: "required,notblank"},
	{name: "excerpt", tag: "omitempty", sanitize: SanitizeText},
	{name: "tags", tag: "omitempty,max=255", sanitize: strings.TrimSpace},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(fmt.Sprintf("post: register notblank: %v", err))
		}
	})
	return validate
}

type checkedFields map[string]string

// checkFields sanitizes and validates every field selected by include.
func checkFields(values map[string]Field, include func(name string, f Field) bool) (checkedFields, error) {
	v := getValidator()
	out := make(checkedFields, len(values))
	var failures []FieldError
	for _, rule := range fieldRules {
		f := values[rule.name]
		if !include(rule.name, f) {
			continue
		}
		if f.Invalid {
			failures = append(failures, FieldError{Field: rule.name, Message: rule.name + " must be a string"})
			continue
		}
		value := f.Value
		if rule.sanitize != nil {
			value = rule.sanitize(value)
		}
		if err := v.Var(value, rule.tag); err != nil {
			failures = append(failures, describe(rule.name, err))
			continue
		}
		out[rule.name] = value
	}
	if len(failures) > 0 {
		return nil, &ValidationError{Fields: failures}
	}
	return out, nil
}

func describe(field string, err error) FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return FieldError{Field: field, Message: field + " is invalid"}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return FieldError{Field: field, Message: field + " is required"}
	case "notblank":
		return FieldError{Field: field, Message: field + " must not be empty"}
	case "max":
		return FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	default:
		return FieldError{Field: field, Message: field + " is invalid"}
	}
}

func (in *CreateInput) fields() map[string]Field {
	return map[string]Field{"title": in.Title, "content": in.Content, "excerpt": in.Excerpt, "tags": in.Tags}
}

func (in *UpdateInput) fields() map[string]Field {
	return map[string]Field{"title": in.Title, "content": in.Content, "excerpt": in.Excerpt, "tags": in.Tags}
}

// Validate sanitizes the input and returns the row to insert, or a
// *ValidationError naming every failing field.
func (in *CreateInput) Validate() (*NewPost, error) {
	values := in.fields()
	checked, err := checkFields(values, func(name string, f Field) bool {
		return f.Set || name == "title" || name == "content"
	})
	if err != nil {
		return nil, err
	}
	return &NewPost{
		Title:   checked["title"],
		Content: checked["content"],
		Excerpt: optionalText(checked, "excerpt"),
		Tags:    optionalText(checked, "tags"),
	}, nil
}

// Validate checks only the fields the client sent and builds the patch.
func (in *UpdateInput) Validate() (*Patch, error) {
	values := in.fields()
	checked, err := checkFields(values, func(_ string, f Field) bool { return f.Set })
	if err != nil {
		return nil, err
	}
	patch := &Patch{}
	if v, ok := checked["title"]; ok {
		patch.Title = Some(v)
	}
	if v, ok := checked["content"]; ok {
		patch.Content = Some(v)
	}
	if _, ok := checked["excerpt"]; ok {
		patch.Excerpt = Some(optionalText(checked, "excerpt"))
	}
	if _, ok := checked["tags"]; ok {
		patch.Tags = Some(optionalText(checked, "tags"))
	}
	return patch, nil
}

// optionalText maps an empty sanitized value to NULL.
func optionalText(checked checkedFields, name string) *string {
	v, ok := checked[name]
	if !ok || v == "" {
		return nil
	}
	return &v
}

package store

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("path", func(fl validator.FieldLevel) bool {
		return model.ValidPath(fl.Field().String())
	})
	return v
}

// validateStruct returns nil or a *ValidationError. prefix is prepended to
// every message, for rows validated on behalf of a parent.
func validateStruct(v any, prefix string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Messages: []string{err.Error()}}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := humanize(fe.Field())
		if prefix != "" {
			name = prefix + " " + strings.ToLower(name)
		}
		msgs = append(msgs, name+" "+describe(fe))
	}
	return &ValidationError{Messages: msgs}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "email":
		return "is invalid"
	case "path":
		return "can contain only letters, digits, '_', '-' and '.', and cannot start with '-' or end in '.', '.git' or '.atom'"
	case "max":
		return "is too long (maximum is " + fe.Param() + " characters)"
	case "oneof":
		return "is not included in the list"
	default:
		return "is invalid"
	}
}

var fieldNames = map[string]string{
	"EncryptedPassword": "Password",
	"OrganizationID":    "Organization",
	"NamespaceID":       "Namespace",
	"CreatorID":         "Creator",
	"UserID":            "User",
	"GroupID":           "Group",
	"CIConfigPath":      "CI config path",
}

// humanize turns DefaultBranch into "Default branch".
func humanize(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Fields turns a binding error into field name -> failed tag, for the
// error envelope's details. Malformed bodies map to "body".
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "malformed"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}

// Var validates a single value against a tag expression, e.g. "required,email".
func Var(value any, tag string) error {
	return validate.Var(value, tag)
}

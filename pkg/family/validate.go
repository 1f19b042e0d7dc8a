package family

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/kinboard/pkg/errors"
)

// formValidate checks member and connection forms before they are submitted.
// Stores never call it: whatever reaches a store is persisted as-is.
var formValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a Member or Connection against its form rules and returns a
// single readable error listing every failing field.
func Validate(v any) error {
	err := formValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	kind, _, _ := strings.Cut(verrs[0].StructNamespace(), ".")
	return errors.New(errors.ErrCodeInvalidInput, "invalid %s: %s", strings.ToLower(kind), strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), fe.Param())
	case "hexcolor":
		return fe.Field() + " must be a hex color like #80ec13"
	case "url":
		return fe.Field() + " must be a URL"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

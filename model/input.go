package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// UserInput is the writable part of a user, as sent on create and update.
type UserInput struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=6,maxbytes=72"`
	Role     Role     `json:"role" validate:"oneof=admin user manager"`
	Active   bool     `json:"active"`
	Location Location `json:"location"`
}

// DefaultUserInput is the blank create form.
func DefaultUserInput() UserInput {
	return UserInput{
		Role:     RoleUser,
		Active:   true,
		Location: Location{Latitude: DefaultLatitude, Longitude: DefaultLongitude},
	}
}

// UserToInput fills the edit form from a user. The password starts empty and
// is only sent when changed.
func UserToInput(u User) UserInput {
	return UserInput{
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
		Location: u.Location,
	}
}

// ValidationError maps field paths ("name", "location.latitude") to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for one field, or "".
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt only accepts passwords up to 72 bytes; min and max count runes
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// Validate checks the input for the given form mode. Create requires a
// password; edit accepts an empty one, meaning unchanged.
func (in UserInput) Validate(mode FormMode) error {
	fields := map[string]string{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating user: %w", err)
		}
		for _, fe := range verrs {
			path := fieldPath(fe.Namespace())
			if _, seen := fields[path]; !seen {
				fields[path] = messageFor(path, fe)
			}
		}
	}
	if mode == FormCreate && in.Password == "" {
		fields["password"] = passwordMessage
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

const (
	passwordMessage        = "Password must be at least 6 characters"
	passwordTooLongMessage = "Password must be at most 72 bytes"
)

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func messageFor(path string, fe validator.FieldError) string {
	switch path {
	case "name":
		return "Name is required"
	case "email":
		return "Invalid email format"
	case "password":
		if fe.Tag() == "maxbytes" {
			return passwordTooLongMessage
		}
		return passwordMessage
	case "role":
		return "Role must be one of admin, user, manager"
	case "location.latitude":
		return "Latitude must be between -90 and 90"
	case "location.longitude":
		return "Longitude must be between -180 and 180"
	}
	return fmt.Sprintf("Failed on %s", fe.Tag())
}

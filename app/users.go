package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweater-ventures/roster/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	UsersResource = "users"

	fieldPassword     = "password"
	fieldPasswordHash = "passwordHash"
)

// zero values of these are valid, so presence is checked separately
var requiredUserFields = []string{"role", "active", "location"}

// InvalidDataError is a write the schema rejected. Details goes back to the
// caller verbatim.
type InvalidDataError struct {
	Details string
	Err     error
}

func (e *InvalidDataError) Error() string { return "invalid data: " + e.Details }

func (e *InvalidDataError) Unwrap() error { return e.Err }

// Schema validates and normalizes records of one resource before they are
// stored.
type Schema interface {
	Resource() string
	// Hidden lists stored fields that are never returned or searched.
	Hidden() []string
	// Prepare checks a fully merged record and returns what to store.
	// existing is nil on create.
	Prepare(rec Record, existing Record) (Record, error)
}

// UserSchema stores users with their password reduced to a bcrypt hash.
type UserSchema struct {
	Cost int
}

func (UserSchema) Resource() string { return UsersResource }

func (UserSchema) Hidden() []string { return []string{fieldPasswordHash} }

func (s UserSchema) Prepare(rec Record, existing Record) (Record, error) {
	mode := model.FormCreate
	if existing != nil {
		mode = model.FormEdit
	}

	raw, err := json.Marshal(rec.without([]string{fieldPasswordHash}))
	if err != nil {
		return nil, fmt.Errorf("encoding user: %w", err)
	}
	var in model.UserInput
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		return nil, &InvalidDataError{Details: err.Error(), Err: err}
	}
	fields := map[string]string{}
	if err := in.Validate(mode); err != nil {
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	for _, f := range requiredUserFields {
		if _, ok := rec[f]; !ok && fields[f] == "" {
			fields[f] = "Required"
		}
	}
	if len(fields) > 0 {
		verr := &model.ValidationError{Fields: fields}
		return nil, &InvalidDataError{Details: verr.Error(), Err: verr}
	}

	out := Record{
		"name":     in.Name,
		"email":    in.Email,
		"role":     string(in.Role),
		"active":   in.Active,
		"location": map[string]any{"latitude": in.Location.Latitude, "longitude": in.Location.Longitude},
	}
	for _, f := range []string{"id", "createdAt", "updatedAt"} {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}

	switch {
	case in.Password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &InvalidDataError{Details: "password: Password must be at most 72 bytes", Err: err}
		}
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		out[fieldPasswordHash] = string(hash)
	case existing != nil:
		if hash, ok := existing[fieldPasswordHash]; ok {
			out[fieldPasswordHash] = hash
		}
	}
	return out, nil
}

func (s UserSchema) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// CheckUserPassword reports whether password matches the stored user record.
func CheckUserPassword(rec Record, password string) bool {
	hash, _ := rec[fieldPasswordHash].(string)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() UserInput {
	in := DefaultUserInput()
	in.Name = "Jane Doe"
	in.Email = "jane@example.com"
	in.Password = "secret1"
	return in
}

func TestUserInput_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mode     FormMode
		mutate   func(in *UserInput)
		expected map[string]string
	}{
		{"valid create", FormCreate, func(in *UserInput) {}, nil},
		{"missing name", FormCreate, func(in *UserInput) { in.Name = "" }, map[string]string{"name": "Name is required"}},
		{"bad email", FormCreate, func(in *UserInput) { in.Email = "nope" }, map[string]string{"email": "Invalid email format"}},
		{"short password", FormCreate, func(in *UserInput) { in.Password = "abc" }, map[string]string{"password": "Password must be at least 6 characters"}},
		{"create needs password", FormCreate, func(in *UserInput) { in.Password = "" }, map[string]string{"password": "Password must be at least 6 characters"}},
		{"edit allows empty password", FormEdit, func(in *UserInput) { in.Password = "" }, nil},
		{"edit still checks length", FormEdit, func(in *UserInput) { in.Password = "abc" }, map[string]string{"password": "Password must be at least 6 characters"}},
		{"password over 72 bytes", FormCreate, func(in *UserInput) { in.Password = strings.Repeat("ş", 37) }, map[string]string{"password": "Password must be at most 72 bytes"}},
		{"password of 72 bytes", FormCreate, func(in *UserInput) { in.Password = strings.Repeat("a", 72) }, nil},
		{"unknown role", FormEdit, func(in *UserInput) { in.Role = "root" }, map[string]string{"role": "Role must be one of admin, user, manager"}},
		{"latitude range", FormEdit, func(in *UserInput) { in.Location.Latitude = 91 }, map[string]string{"location.latitude": "Latitude must be between -90 and 90"}},
		{"longitude range", FormEdit, func(in *UserInput) { in.Location.Longitude = -181 }, map[string]string{"location.longitude": "Longitude must be between -180 and 180"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate(tt.mode)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.expected, verr.Fields)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"name": "Name is required", "email": "Invalid email format"}}
	assert.Equal(t, "email: Invalid email format; name: Name is required", err.Error())
	assert.Equal(t, "Name is required", err.Field("name"))
	assert.Empty(t, (*ValidationError)(nil).Field("name"))
}

func TestUserToInput_DropsPassword(t *testing.T) {
	u := User{Name: "Jane", Email: "jane@example.com", Role: RoleAdmin, Active: true}
	in := UserToInput(u)
	assert.Empty(t, in.Password)

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestUser_JSONShape(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := `{"id":"u1","createdAt":"2026-03-01T12:00:00Z","updatedAt":"2026-03-01T12:00:00Z","name":"Jane","email":"j@x.io","role":"manager","active":false,"location":{"latitude":1.5,"longitude":2.5}}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "u1", u.GetID())
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, RoleManager, u.Role)
	assert.Equal(t, Location{1.5, 2.5}, u.Location)
}

func TestMeasurePassword(t *testing.T) {
	tests := []struct {
		password string
		score    int
		level    StrengthLevel
	}{
		{"", 0, Weak},
		{"abc", 1, Weak},
		{"abcDEF", 2, Medium},
		{"abcDEF12", 4, Strong},
		{"abcDEF12!", 5, VeryStrong},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			s := MeasurePassword(tt.password)
			assert.Equal(t, tt.score, s.Score)
			assert.Equal(t, tt.level, s.Level)
		})
	}
}

func TestRole(t *testing.T) {
	assert.Equal(t, "Manager", RoleManager.Label())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
}

package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/model"
	"golang.org/x/crypto/bcrypt"
)

func TestUserSchema_PrepareCreate(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	rec := validUser()
	rec["id"] = "u1"
	rec["nickname"] = "dropped"

	out, err := schema.Prepare(rec, nil)
	require.NoError(t, err)

	assert.Equal(t, "u1", out["id"])
	assert.Equal(t, "Ayşe Yılmaz", out["name"])
	assert.Equal(t, "admin", out["role"])
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "nickname")
	assert.True(t, CheckUserPassword(out, "secret1"))
	assert.False(t, CheckUserPassword(out, "wrong"))
}

func TestUserSchema_PrepareRejectsInvalid(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	rec := validUser()
	rec["email"] = "not-an-email"
	rec["location"] = map[string]any{"latitude": 91.0, "longitude": 0.0}
	delete(rec, "role")

	_, err := schema.Prepare(rec, nil)
	var invalid *InvalidDataError
	require.ErrorAs(t, err, &invalid)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid email format", verr.Field("email"))
	assert.Equal(t, "Latitude must be between -90 and 90", verr.Field("location.latitude"))
	assert.NotEmpty(t, verr.Field("role"))
	assert.Contains(t, invalid.Details, "email: Invalid email format")
}

func TestUserSchema_PasswordTooLongIsInvalidData(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	rec := validUser()
	rec["password"] = strings.Repeat("x", 80)

	_, err := schema.Prepare(rec, nil)
	var invalid *InvalidDataError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Details, "Password must be at most 72 bytes")
}

func TestUserSchema_RequiresPresence(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	rec := validUser()
	delete(rec, "active")

	_, err := schema.Prepare(rec, nil)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Required", verr.Field("active"))
}

func TestUserSchema_CreateRequiresPassword(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	rec := validUser()
	delete(rec, "password")

	_, err := schema.Prepare(rec, nil)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password must be at least 6 characters", verr.Field("password"))
}

func TestUserSchema_EditKeepsHash(t *testing.T) {
	schema := UserSchema{Cost: bcrypt.MinCost}
	existing, err := schema.Prepare(validUser(), nil)
	require.NoError(t, err)

	rec := existing.clone()
	rec["name"] = "Ayşe Demir"
	out, err := schema.Prepare(rec, existing)
	require.NoError(t, err)
	assert.Equal(t, existing[fieldPasswordHash], out[fieldPasswordHash])
	assert.True(t, CheckUserPassword(out, "secret1"))

	rec["password"] = "changed1"
	out, err = schema.Prepare(rec, existing)
	require.NoError(t, err)
	assert.True(t, CheckUserPassword(out, "changed1"))
}

func TestUserSchema_Hidden(t *testing.T) {
	assert.Equal(t, []string{"passwordHash"}, UserSchema{}.Hidden())
	assert.Equal(t, "users", UserSchema{}.Resource())
	assert.Equal(t, bcrypt.DefaultCost, UserSchema{}.cost())
}

package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/db"
	"github.com/sweater-ventures/roster/model"
	"golang.org/x/crypto/bcrypt"
)

// NewID returns a new UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// UserBodyOpt is a functional option for building user request bodies.
type UserBodyOpt func(map[string]any)

// NewUserBody creates a valid create-user request body. Use options to
// override fields.
func NewUserBody(opts ...UserBodyOpt) map[string]any {
	b := map[string]any{
		"name":     "Test User",
		"email":    "test.user@example.com",
		"password": "secret1",
		"role":     string(model.RoleUser),
		"active":   true,
		"location": map[string]any{
			"latitude":  model.DefaultLatitude,
			"longitude": model.DefaultLongitude,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithField sets one top-level field of a user body.
func WithField(name string, value any) UserBodyOpt {
	return func(b map[string]any) { b[name] = value }
}

// WithoutField removes one top-level field of a user body.
func WithoutField(name string) UserBodyOpt {
	return func(b map[string]any) { delete(b, name) }
}

// UserOpt is a functional option for building test Users.
type UserOpt func(*model.User)

// NewUser creates a model.User with sensible defaults.
func NewUser(opts ...UserOpt) model.User {
	now := time.Now().UTC()
	u := model.User{
		BaseEntity: model.BaseEntity{ID: NewID(), CreatedAt: now, UpdatedAt: now},
		Name:       "Test User",
		Email:      "test.user@example.com",
		Role:       model.RoleUser,
		Active:     true,
		Location:   model.Location{Latitude: model.DefaultLatitude, Longitude: model.DefaultLongitude},
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// NewUserDocument stores u as a users document the way the API would, with
// the password hashed at bcrypt.MinCost.
func NewUserDocument(u model.User, password string) db.Document {
	body := map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      string(u.Role),
		"active":    u.Active,
		"location":  u.Location,
		"createdAt": u.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic("testutil: failed to hash password: " + err.Error())
		}
		body["passwordHash"] = string(hash)
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic("testutil: failed to encode user: " + err.Error())
	}
	return db.Document{
		Resource:  app.UsersResource,
		ID:        u.ID,
		Data:      data,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// TestConfig returns a config suited to tests: in-memory store, cheap
// hashing and short timeouts.
func TestConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:            8005,
		BaseURL:         "http://localhost:8005",
		Store:           config.StoreMemory,
		BcryptCost:      bcrypt.MinCost,
		PageSize:        25,
		CacheSize:       128,
		ListStaleTime:   5 * time.Minute,
		DetailStaleTime: 10 * time.Minute,
		RequestTimeout:  5 * time.Second,
		SessionTTL:      time.Hour,
	}
}

// AppOpt is a functional option for building test Applications.
type AppOpt func(*config.AppConfig)

// WithBackendURL points the console's wire client at url.
func WithBackendURL(url string) AppOpt {
	return func(c *config.AppConfig) { c.BackendURL = url }
}

// NewTestApp creates an app.Application suitable for testing. A nil querier
// uses an empty in-memory store.
func NewTestApp(querier db.Querier, opts ...AppOpt) *app.Application {
	if querier == nil {
		querier = db.NewMemory()
	}
	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	a, err := app.NewWithQuerier(cfg, querier)
	if err != nil {
		panic("testutil: failed to build app: " + err.Error())
	}
	return a
}

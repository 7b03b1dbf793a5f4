package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/db"
	"github.com/sweater-ventures/roster/resource"
)

// OriginHeader carries the id of the client that issued an API write.
const OriginHeader = "X-Roster-Origin"

const recordCacheTTL = 10 * time.Minute

type Application struct {
	Config      config.AppConfig
	DB          db.Querier
	Schemas     map[string]Schema
	Records     *Cache[RecordKey, Record]
	Collections *CollectionCache
	EventBus    *EventBus
	Sessions    *SessionStore
	// Store and API are the console side: the cache and wire client every
	// session's controllers share.
	Store  *resource.Store
	API    *client.Client
	Origin string
	closer func()
}

// NewApp connects to the configured document store and builds the
// application around it.
func NewApp(cfg *config.AppConfig) (*Application, error) {
	queries, closer, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open document store", "store", cfg.Store, "error", err)
		return nil, err
	}
	roster, err := NewWithQuerier(cfg, queries)
	if err != nil {
		closer()
		return nil, err
	}
	roster.closer = closer
	return roster, nil
}

// NewWithQuerier builds the application over an already open store.
func NewWithQuerier(cfg *config.AppConfig, queries db.Querier) (*Application, error) {
	store, err := resource.NewStore(resource.Options{
		ListStaleTime:   cfg.ListStaleTime,
		DetailStaleTime: cfg.DetailStaleTime,
		MaxEntries:      cfg.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	origin := uuid.NewString()
	api := client.New(cfg.APIBaseURL(), &http.Client{Timeout: cfg.RequestTimeout}).
		WithHeader(OriginHeader, origin)

	return &Application{
		Config:      *cfg,
		DB:          queries,
		Schemas:     map[string]Schema{UsersResource: UserSchema{Cost: cfg.BcryptCost}},
		Records:     NewCache[RecordKey, Record](cfg.CacheSize, recordCacheTTL),
		Collections: NewCollectionCache(queries),
		EventBus:    NewEventBus(),
		Sessions:    NewSessionStore(cfg.SessionTTL),
		Store:       store,
		API:         api,
		Origin:      origin,
		closer:      func() {},
	}, nil
}

package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/query"
)

// Requester performs one API call. *client.Client implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// List is one page (or the whole set) of a list read.
type List[T any] struct {
	Items []T
	Meta  client.Meta
}

// Client is the typed cache view of one resource. Every read decodes a fresh
// value from the stored payload, so callers may modify what they get back.
type Client[T any] struct {
	store    *Store
	api      Requester
	resource string
}

func NewClient[T any](store *Store, api Requester, resource string) *Client[T] {
	return &Client[T]{store: store, api: api, resource: resource}
}

func (c *Client[T]) Resource() string { return c.resource }

func (c *Client[T]) listKey(q query.Descriptor) Key {
	return Key{Resource: c.resource, Kind: KindList, ID: q.Key()}
}

func (c *Client[T]) detailKey(id string) Key {
	return Key{Resource: c.resource, Kind: KindDetail, ID: id}
}

// ListRead returns the list for q, from cache when fresh.
func (c *Client[T]) ListRead(ctx context.Context, q query.Descriptor) (List[T], error) {
	path := client.ListPath(c.resource, q)
	raw, err := c.store.load(ctx, c.listKey(q), func(ctx context.Context) (json.RawMessage, error) {
		return c.api.Request(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return List[T]{}, err
	}
	return decodeList[T](raw)
}

// Peek returns the last successful list payload for q without fetching,
// whether or not it is stale.
func (c *Client[T]) Peek(q query.Descriptor) (List[T], bool) {
	raw, ok := c.store.peek(c.listKey(q))
	if !ok {
		return List[T]{}, false
	}
	list, err := decodeList[T](raw)
	if err != nil {
		return List[T]{}, false
	}
	return list, true
}

// DetailRead returns one entity. A missing entity yields an error matching
// client.ErrNotFound.
func (c *Client[T]) DetailRead(ctx context.Context, id string) (T, error) {
	path := client.ResourcePath(c.resource, id)
	raw, err := c.store.load(ctx, c.detailKey(id), func(ctx context.Context) (json.RawMessage, error) {
		return c.api.Request(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOne[T](raw)
}

// Create posts a new entity and invalidates every list of the resource. The
// detail cache is left alone.
func (c *Client[T]) Create(ctx context.Context, payload any) (T, error) {
	var zero T
	raw, err := c.api.Request(ctx, http.MethodPost, client.ResourcePath(c.resource, ""), payload)
	if err != nil {
		return zero, err
	}
	c.store.Invalidate(c.resource)
	log(ctx).Debug("Invalidated lists after create", slog.String("resource", c.resource))
	return decodeOne[T](raw)
}

// Update replaces an entity with PUT. The returned entity becomes the fresh
// detail entry and every list is invalidated.
func (c *Client[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	return c.write(ctx, http.MethodPut, id, payload)
}

// Patch applies a partial update. Cache effects match Update.
func (c *Client[T]) Patch(ctx context.Context, id string, partial any) (T, error) {
	return c.write(ctx, http.MethodPatch, id, partial)
}

func (c *Client[T]) write(ctx context.Context, method, id string, payload any) (T, error) {
	var zero T
	raw, err := c.api.Request(ctx, method, client.ResourcePath(c.resource, id), payload)
	if err != nil {
		return zero, err
	}
	entity, err := decodeOne[T](raw)
	if err != nil {
		return zero, err
	}
	c.store.Invalidate(c.resource)
	c.store.put(c.detailKey(id), raw)
	log(ctx).Debug("Updated detail entry", slog.String("resource", c.resource), slog.String("id", id))
	return entity, nil
}

// Delete removes an entity, drops its detail entry and invalidates every list.
func (c *Client[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.api.Request(ctx, http.MethodDelete, client.ResourcePath(c.resource, id), nil); err != nil {
		return err
	}
	c.store.Invalidate(c.resource)
	c.store.remove(c.detailKey(id))
	return nil
}

func decodeList[T any](raw json.RawMessage) (List[T], error) {
	var resp client.Response[[]T]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return List[T]{}, fmt.Errorf("decoding list: %w", err)
	}
	list := List[T]{Items: resp.Data}
	if list.Items == nil {
		list.Items = []T{}
	}
	if resp.Meta != nil {
		list.Meta = *resp.Meta
	} else {
		list.Meta = client.Meta{Total: len(list.Items), Page: 1, Limit: len(list.Items), TotalPages: 1}
	}
	return list, nil
}

func decodeOne[T any](raw json.RawMessage) (T, error) {
	var resp client.Response[T]
	if err := json.Unmarshal(raw, &resp); err != nil {
		var zero T
		return zero, fmt.Errorf("decoding entity: %w", err)
	}
	return resp.Data, nil
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}

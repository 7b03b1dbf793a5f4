package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/db"
	"github.com/sweater-ventures/roster/query"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrRecordNotFound  = errors.New("record not found")
)

// RecordKey identifies one record in the record cache.
type RecordKey struct {
	Resource string
	ID       string
}

func (roster *Application) schema(resource string) (Schema, error) {
	s, ok := roster.Schemas[resource]
	if !ok {
		return nil, ErrUnknownResource
	}
	return s, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ListRecords runs q over every record of resource. Hidden fields are removed
// from the returned records.
func ListRecords(ctx context.Context, roster *Application, resource string, q query.Descriptor) ([]Record, client.Meta, error) {
	schema, err := roster.schema(resource)
	if err != nil {
		return nil, client.Meta{}, err
	}
	records, err := roster.Collections.Records(ctx, resource)
	if err != nil {
		return nil, client.Meta{}, err
	}
	page, meta := QueryRecords(records, q, schema.Hidden())
	visible := make([]Record, len(page))
	for i, rec := range page {
		visible[i] = rec.without(schema.Hidden())
	}
	return visible, meta, nil
}

// GetRecord returns one record without its hidden fields.
func GetRecord(ctx context.Context, roster *Application, resource, id string) (Record, error) {
	schema, err := roster.schema(resource)
	if err != nil {
		return nil, err
	}
	rec, err := getStoredRecord(ctx, roster, resource, id)
	if err != nil {
		return nil, err
	}
	return rec.without(schema.Hidden()), nil
}

// getStoredRecord reads through the record cache, remembering misses. A
// result read before a concurrent write is returned but not cached.
func getStoredRecord(ctx context.Context, roster *Application, resource, id string) (Record, error) {
	key := RecordKey{Resource: resource, ID: id}
	if rec, found, inCache := roster.Records.Get(key); inCache {
		if !found {
			return nil, ErrRecordNotFound
		}
		return rec, nil
	}

	gen := roster.Records.Generation()
	doc, err := roster.DB.GetDocument(ctx, db.GetDocumentParams{Resource: resource, ID: id})
	if errors.Is(err, db.ErrNotFound) {
		roster.Records.SetIfCurrent(key, nil, false, gen)
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", resource, id, err)
	}
	rec, err := decodeRecord(doc.Data)
	if err != nil {
		return nil, err
	}
	roster.Records.SetIfCurrent(key, rec, true, gen)
	return rec, nil
}

// CreateRecord validates body and stores it under a new id.
func CreateRecord(ctx context.Context, roster *Application, resource string, body Record) (Record, error) {
	schema, err := roster.schema(resource)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating id: %w", err)
	}
	now := time.Now()
	rec := body.without(schema.Hidden())
	rec["id"] = id.String()
	rec["createdAt"] = formatTimestamp(now)
	rec["updatedAt"] = formatTimestamp(now)

	prepared, err := schema.Prepare(rec, nil)
	if err != nil {
		return nil, err
	}
	if err := storeRecord(ctx, roster, resource, id.String(), prepared, now, now); err != nil {
		return nil, err
	}
	publishChange(ctx, roster, ChangeCreated, resource, id.String())
	return prepared.without(schema.Hidden()), nil
}

// UpdateRecord merges body over the stored record. id and createdAt are
// kept; updatedAt is refreshed. PUT and PATCH both use it.
func UpdateRecord(ctx context.Context, roster *Application, resource, id string, body Record) (Record, error) {
	schema, err := roster.schema(resource)
	if err != nil {
		return nil, err
	}
	doc, err := roster.DB.GetDocument(ctx, db.GetDocumentParams{Resource: resource, ID: id})
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", resource, id, err)
	}
	existing, err := decodeRecord(doc.Data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	merged := existing.clone()
	for k, v := range body.without(schema.Hidden()) {
		merged[k] = v
	}
	merged["id"] = id
	merged["createdAt"] = existing["createdAt"]
	merged["updatedAt"] = formatTimestamp(now)

	prepared, err := schema.Prepare(merged, existing)
	if err != nil {
		return nil, err
	}
	if err := storeRecord(ctx, roster, resource, id, prepared, doc.CreatedAt, now); err != nil {
		return nil, err
	}
	publishChange(ctx, roster, ChangeUpdated, resource, id)
	return prepared.without(schema.Hidden()), nil
}

// DeleteRecord removes one record.
func DeleteRecord(ctx context.Context, roster *Application, resource, id string) error {
	if _, err := roster.schema(resource); err != nil {
		return err
	}
	n, err := roster.DB.DeleteDocument(ctx, db.DeleteDocumentParams{Resource: resource, ID: id})
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", resource, id, err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	flushRecord(roster, resource, id)
	publishChange(ctx, roster, ChangeDeleted, resource, id)
	return nil
}

// CountRecords returns how many records resource holds.
func CountRecords(ctx context.Context, roster *Application, resource string) (int64, error) {
	if _, err := roster.schema(resource); err != nil {
		return 0, err
	}
	return roster.DB.CountDocuments(ctx, resource)
}

// ClearRecords removes every record of resource.
func ClearRecords(ctx context.Context, roster *Application, resource string) error {
	if _, err := roster.schema(resource); err != nil {
		return err
	}
	if err := roster.DB.DeleteDocuments(ctx, resource); err != nil {
		return fmt.Errorf("clearing %s: %w", resource, err)
	}
	roster.Collections.Flush(resource)
	roster.Records.Flush()
	publishChange(ctx, roster, ChangeCleared, resource, "")
	return nil
}

// AddRecord stores a record with caller-chosen timestamps, running it through
// schema first. Used for seeding.
func AddRecord(ctx context.Context, roster *Application, schema Schema, body Record, createdAt, updatedAt time.Time) (Record, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating id: %w", err)
	}
	rec := body.clone()
	rec["id"] = id.String()
	rec["createdAt"] = formatTimestamp(createdAt)
	rec["updatedAt"] = formatTimestamp(updatedAt)

	prepared, err := schema.Prepare(rec, nil)
	if err != nil {
		return nil, err
	}
	if err := storeRecord(ctx, roster, schema.Resource(), id.String(), prepared, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return prepared.without(schema.Hidden()), nil
}

func storeRecord(ctx context.Context, roster *Application, resource, id string, rec Record, createdAt, updatedAt time.Time) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", resource, id, err)
	}
	_, err = roster.DB.UpsertDocument(ctx, db.UpsertDocumentParams{
		Resource:  resource,
		ID:        id,
		Data:      data,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	})
	if err != nil {
		return fmt.Errorf("storing %s %s: %w", resource, id, err)
	}
	flushRecord(roster, resource, id)
	return nil
}

func flushRecord(roster *Application, resource, id string) {
	roster.Collections.Flush(resource)
	roster.Records.Delete(RecordKey{Resource: resource, ID: id})
}

type originContextKey struct{}

// WithOrigin tags ctx with the id of the client that issued a write.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func originFrom(ctx context.Context) string {
	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}

func publishChange(ctx context.Context, roster *Application, changeType ChangeType, resource, id string) {
	log(ctx).Debug("Publishing change",
		slog.String("type", string(changeType)),
		slog.String("resource", resource),
		slog.String("id", id),
	)
	roster.EventBus.Publish(ChangeMessage{
		Type:     changeType,
		Resource: resource,
		RecordID: id,
		Origin:   originFrom(ctx),
	})
}

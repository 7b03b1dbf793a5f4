package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/query"
)

func init() {
	registerRoute(func(roster *app.Application, router *http.ServeMux) {
		router.Handle("GET /{resource}", routeHandler(roster, listRecordsHandler))
		router.Handle("POST /{resource}", routeHandler(roster, createRecordHandler))
		router.Handle("GET /{resource}/{id}", routeHandler(roster, getRecordHandler))
		router.Handle("PUT /{resource}/{id}", routeHandler(roster, updateRecordHandler))
		router.Handle("PATCH /{resource}/{id}", routeHandler(roster, updateRecordHandler))
		router.Handle("DELETE /{resource}/{id}", routeHandler(roster, deleteRecordHandler))
	})
}

const maxBodyBytes = 1 << 20

// invalidData is the 400 body for a rejected write.
type invalidData struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeRecordError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *app.InvalidDataError
	switch {
	case errors.Is(err, app.ErrUnknownResource):
		writeJsonResponse(w, http.StatusNotFound, map[string]string{"error": "Unknown resource"})
	case errors.Is(err, app.ErrRecordNotFound):
		writeJsonResponse(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	case errors.As(err, &invalid):
		writeJsonResponse(w, http.StatusBadRequest, invalidData{Error: "Invalid data", Details: invalid.Details})
	default:
		log(r.Context()).Error("Record request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeJsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

// decodeBody reads a JSON object. Anything else is invalid data.
func decodeBody(r *http.Request) (app.Record, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, &app.InvalidDataError{Details: err.Error(), Err: err}
	}
	var body app.Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&body); err != nil {
		return nil, &app.InvalidDataError{Details: err.Error(), Err: err}
	}
	if body == nil {
		err := errors.New("body must be a JSON object")
		return nil, &app.InvalidDataError{Details: err.Error(), Err: err}
	}
	return body, nil
}

func listRecordsHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	q := query.Parse(r.URL.Query())
	records, meta, err := app.ListRecords(r.Context(), roster, r.PathValue("resource"), q)
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, client.Response[[]app.Record]{Data: records, Meta: &meta})
}

func getRecordHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	rec, err := app.GetRecord(r.Context(), roster, r.PathValue("resource"), r.PathValue("id"))
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, client.Response[app.Record]{Data: rec})
}

func createRecordHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	rec, err := app.CreateRecord(r.Context(), roster, r.PathValue("resource"), body)
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	log(r.Context()).Info("Record created",
		slog.String("resource", r.PathValue("resource")),
		slog.Any("id", rec["id"]),
	)
	writeJsonResponse(w, http.StatusCreated, client.Response[app.Record]{Data: rec})
}

// updateRecordHandler serves PUT and PATCH. Both merge the body over the
// stored record.
func updateRecordHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	rec, err := app.UpdateRecord(r.Context(), roster, r.PathValue("resource"), r.PathValue("id"), body)
	if err != nil {
		writeRecordError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, client.Response[app.Record]{Data: rec})
}

func deleteRecordHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	if err := app.DeleteRecord(r.Context(), roster, r.PathValue("resource"), r.PathValue("id")); err != nil {
		writeRecordError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sweater-ventures/roster/app"
)

func init() {
	registerRoute(func(roster *app.Application, router *http.ServeMux) {
		router.Handle("GET /changes", routeHandler(roster, changesStreamHandler))
	})
}

const keepAliveInterval = 30 * time.Second

// changesStreamHandler streams every ChangeMessage as a server-sent event
// until the client goes away. ?resource= limits the stream to one resource.
func changesStreamHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "Streaming unsupported"})
		return
	}
	resource := r.URL.Query().Get("resource")

	messages, unsubscribe := roster.EventBus.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg := <-messages:
			if resource != "" && msg.Resource != resource {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log(r.Context()).Error("Failed to encode change", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", msg.ID, msg.Type, data)
			flusher.Flush()
		}
	}
}

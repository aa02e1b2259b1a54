package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RLGADM/Kenshou-beta-3/internal/registry"
	"github.com/RLGADM/Kenshou-beta-3/internal/room"
)

// RoomExists lets the client probe a code before navigating, so a stale link
// can redirect home instead of opening a dead socket.
func RoomExists(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))

		reply := make(chan *room.Room, 1)
		if !reg.Send(registry.GetRoom{Code: code, Reply: reply}) {
			http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
			return
		}
		rm := <-reply

		w.Header().Set("Content-Type", "application/json")
		if rm == nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(struct {
				Exists bool `json:"exists"`
			}{false})
			return
		}
		_ = json.NewEncoder(w).Encode(struct {
			Exists bool   `json:"exists"`
			Code   string `json:"code"`
		}{true, rm.Code()})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

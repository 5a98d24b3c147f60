package routes

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/victorjacobs/go-overkiz/bridge"
)

type stateResponse struct {
	bridge.Snapshot
	LastRefreshed time.Time `json:"last_refreshed"`
}

// Snapshotter is implemented by *bridge.Bridge.
type Snapshotter interface {
	Snapshot() bridge.Snapshot
}

func State(b Snapshotter) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		resp := stateResponse{
			Snapshot:      b.Snapshot(),
			LastRefreshed: time.Now(),
		}

		marshaled, err := json.Marshal(resp)
		if err != nil {
			log.Printf("error marshaling: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(marshaled)
	}
}

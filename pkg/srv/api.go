package srv

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wavemon/go-wavexlr/pkg/layers"
	"github.com/wavemon/go-wavexlr/pkg/log"
)

type RawState struct {
	Data      string `json:"data"` // hexadecimal
	Timestamp uint64 `json:"timestamp"`
	Source    string `json:"source"`
}

// StartApiServer ...
func (s *MonitorServer) StartApiServer() error {
	log.Debug("Starting API server: address: %s port: %d",
		s.Config.ApiConfig.Address, s.Config.ApiConfig.Port)
	router := s.configureRouter()
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stdout, router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.ApiConfig.Address, s.Config.ApiConfig.Port),
	}
	return httpServer.ListenAndServe()
}

func (s *MonitorServer) configureRouter() *mux.Router {
	router := mux.NewRouter()
	subRouter := router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/state", s.handleStateGet()).Methods("GET")
	subRouter.HandleFunc("/state/tree", s.handleStateTree()).Methods("GET")
	subRouter.HandleFunc("/state/raw", s.handleStateRaw()).Methods("GET")
	return router
}

func (s *MonitorServer) handleStateGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.State.GetConfig()
		if err != nil {
			writeStateError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cfg); err != nil {
			log.Error("Error while encoding device configuration: %s", err)
		}
	}
}

func (s *MonitorServer) handleStateTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _, _, err := s.State.GetRaw()
		if err != nil {
			writeStateError(w, err)
			return
		}
		node, err := layers.Schemas().Decode(layers.ConfigSchema, raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(node); err != nil {
			log.Error("Error while encoding configuration tree: %s", err)
		}
	}
}

func (s *MonitorServer) handleStateRaw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, timestamp, source, err := s.State.GetRaw()
		if err != nil {
			writeStateError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		state := &RawState{
			Data:      hex.EncodeToString(raw),
			Timestamp: timestamp,
			Source:    source,
		}
		if err := json.NewEncoder(w).Encode(state); err != nil {
			log.Error("Error while encoding raw state: %s", err)
		}
	}
}

func writeStateError(w http.ResponseWriter, err error) {
	var notFound ErrStateNotFound
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

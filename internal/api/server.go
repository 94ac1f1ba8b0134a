// Package api exposes the deployment ledger and genesis launcher over
// a small REST surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"daokit-go/internal/store"
	"daokit-go/internal/verify"
)

// DeploymentStore is the ledger surface the API reads.
type DeploymentStore interface {
	Get(id string) (*store.Deployment, error)
	List(limit int) ([]store.Deployment, error)
}

// Launcher runs a genesis and records it; nil disables POST.
type Launcher interface {
	Launch(ctx context.Context, minDelay int64, members []common.Address) (*store.Deployment, error)
}

// Verifier re-checks a recorded deployment's wiring on chain; nil
// disables the verify endpoint.
type Verifier interface {
	Verify(ctx context.Context, d *store.Deployment) (*verify.Report, error)
}

type Server struct {
	store    DeploymentStore
	launcher Launcher
	verifier Verifier
	log      *zap.Logger
	router   *mux.Router
}

func NewServer(db DeploymentStore, launcher Launcher, verifier Verifier, log *zap.Logger) *Server {
	s := &Server{
		store:    db,
		launcher: launcher,
		verifier: verifier,
		log:      log.Named("api"),
	}
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/deployments", s.handleLaunch).Methods("POST")
	r.HandleFunc("/deployments", s.handleList).Methods("GET")
	r.HandleFunc("/deployments/{id}", s.handleGet).Methods("GET")
	r.HandleFunc("/deployments/{id}/verify", s.handleVerify).Methods("GET")
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type launchRequest struct {
	MinDelay int64    `json:"min_delay"`
	Members  []string `json:"members"`
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	if s.launcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "deployments are disabled on this server")
		return
	}
	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MinDelay < 0 {
		s.writeError(w, http.StatusBadRequest, "min_delay must not be negative")
		return
	}
	members := make([]common.Address, 0, len(req.Members))
	for _, m := range req.Members {
		if !common.IsHexAddress(m) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid member address %q", m))
			return
		}
		members = append(members, common.HexToAddress(m))
	}
	d, err := s.launcher.Launch(r.Context(), req.MinDelay, members)
	if err != nil {
		s.log.Error("launch genesis", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, deploymentView(d))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.store.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]map[string]interface{}, 0, len(list))
	for i := range list {
		views = append(views, deploymentView(&list[i]))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "deployment not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, deploymentView(d))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		s.writeError(w, http.StatusServiceUnavailable, "verification is disabled on this server")
		return
	}
	d, err := s.store.Get(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "deployment not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	report, err := s.verifier.Verify(r.Context(), d)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       report.OK(),
		"findings": report.Findings,
	})
}

func deploymentView(d *store.Deployment) map[string]interface{} {
	return map[string]interface{}{
		"id":         d.ID,
		"chain_id":   d.ChainID,
		"network":    d.Network,
		"tx_hash":    d.TxHash,
		"deployer":   d.Deployer,
		"min_delay":  d.MinDelay,
		"timelock":   d.Timelock,
		"token":      d.Token,
		"governor":   d.Governor,
		"treasury":   d.Treasury,
		"kernel":     d.Kernel,
		"members":    d.Members,
		"created_at": d.CreatedAt,
	}
}

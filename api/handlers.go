package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/vppsim/core/dispatch"
	"github.com/kilianp07/vppsim/core/frequency"
	"github.com/kilianp07/vppsim/core/market"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.Clients()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Store.Snapshot())
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Store.Alerts())
}

func (s *Server) handleClearAlerts(w http.ResponseWriter, _ *http.Request) {
	s.deps.Store.ClearAlerts()
	w.WriteHeader(http.StatusNoContent)
}

// FrequencyResponse is the body of GET /api/frequency.
type FrequencyResponse struct {
	Samples   []frequency.Sample `json:"samples"`
	Current   float64            `json:"current"`
	Deviation float64            `json:"deviation"`
	Stable    bool               `json:"stable"`
	Summary   frequency.Summary  `json:"summary"`
}

func (s *Server) handleFrequency(w http.ResponseWriter, _ *http.Request) {
	m := s.deps.Frequency
	writeJSON(w, http.StatusOK, FrequencyResponse{
		Samples:   m.Samples(),
		Current:   m.Current(),
		Deviation: m.Deviation(),
		Stable:    m.Stable(),
		Summary:   m.Summary(),
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dispatch.Assets())
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dispatch.Commands())
}

// CommandRequest is the body of POST /api/dispatch/commands.
type CommandRequest struct {
	AssetID  string  `json:"assetId"`
	TargetMW float64 `json:"targetMW"`
}

func (s *Server) handleSubmitCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := s.deps.Dispatch.Submit(req.AssetID, req.TargetMW)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, cmd)
	case errors.Is(err, dispatch.ErrUnknownAsset), errors.Is(err, dispatch.ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, dispatch.ErrBusy):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, dispatch.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.log.Errorf("submit command: %v", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleBids(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Bids.Bids())
}

// BidRequest is the body of POST /api/market/bids.
type BidRequest struct {
	Quantity  float64          `json:"quantity"`
	Price     float64          `json:"price"`
	Direction market.Direction `json:"direction"`
}

func (s *Server) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bid, err := s.deps.Bids.Submit(req.Quantity, req.Price, req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, s.deps.Prices)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		if err := s.deps.Prices.WriteCSV(w); err != nil {
			s.log.Errorf("write csv: %v", err)
		}
	case "html":
		page, err := s.deps.Prices.ChartHTML()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	default:
		writeError(w, http.StatusBadRequest, errors.New("unsupported format "+format))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	c := newClient(s.hub, conn)
	if b, err := json.Marshal(Message{Type: TypeSnapshot, Payload: s.deps.Store.Snapshot()}); err == nil {
		c.send <- b
	}
	if !s.hub.add(c) {
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

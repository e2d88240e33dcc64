package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/vppsim/core/dispatch"
	"github.com/kilianp07/vppsim/core/fluctuate"
	"github.com/kilianp07/vppsim/core/frequency"
	"github.com/kilianp07/vppsim/core/market"
	"github.com/kilianp07/vppsim/core/model"
	"github.com/kilianp07/vppsim/core/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	st := store.New()
	t.Cleanup(st.Close)
	mon, err := frequency.New(frequency.Config{}, fluctuate.NewRand(1), frequency.WithClock(clock))
	require.NoError(t, err)
	ctl, err := dispatch.New(dispatch.Config{}, dispatch.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	r := fluctuate.NewRand(2)
	srv, err := NewServer(Config{}, Deps{
		Store:     st,
		Frequency: mon,
		Dispatch:  ctl,
		Bids:      market.NewBidBook(r, clock, market.SampleBids()),
		Prices:    market.GeneratePriceHistory(r),
	})
	require.NoError(t, err)
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(Config{}, Deps{})
	require.Error(t, err)
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv.Handler(), http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, model.InitialSnapshot(), snap)
}

func TestAlertEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	st.AddAlert(model.Alert{ID: "a1", Level: model.LevelWarning, Message: "m", Time: "12:00:00"})

	rr := do(t, srv.Handler(), http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "a1", alerts[0].ID)

	rr = do(t, srv.Handler(), http.MethodDelete, "/api/alerts", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, st.Alerts())
}

func TestFrequencyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv.Handler(), http.MethodGet, "/api/frequency", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp FrequencyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Samples, 60)
	assert.InDelta(t, 50, resp.Current, 0.075+1e-9)
	assert.InDelta(t, resp.Current-50, resp.Deviation, 1e-9)
}

func TestDispatchEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/api/dispatch/commands", `{"assetId":"BESS-0042","targetMW":12.5}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var cmd dispatch.Command
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmd))
	assert.Equal(t, "BESS-0042", cmd.AssetID)
	assert.Equal(t, dispatch.StatusSending, cmd.Status)

	rr = do(t, h, http.MethodPost, "/api/dispatch/commands", `{"assetId":"PV-2847","targetMW":5}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/dispatch/commands", `{"assetId":"NOPE","targetMW":5}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/dispatch/commands", `{"assetId":"PV-2847","targetMW":500}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/dispatch/commands", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/dispatch/commands", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cmds []dispatch.Command
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmds))
	assert.Len(t, cmds, 1)

	rr = do(t, h, http.MethodGet, "/api/dispatch/assets", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "CHP-Warsaw")
}

func TestMarketEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/api/market/bids", `{"quantity":5,"price":480,"direction":"upward"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var bid market.Bid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bid))
	assert.True(t, strings.HasPrefix(bid.ID, "BID-"))
	assert.Equal(t, market.BidPending, bid.Status)

	rr = do(t, h, http.MethodPost, "/api/market/bids", `{"quantity":0,"price":480,"direction":"upward"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/market/bids", "")
	var bids []market.Bid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bids))
	assert.Len(t, bids, 5)
	assert.Equal(t, bid.ID, bids[0].ID)
}

func TestPricesFormats(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/api/market/prices", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var hist market.PriceHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	assert.Len(t, hist, 24)

	rr = do(t, h, http.MethodGet, "/api/market/prices?format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "hour,dayAhead,balancing"))

	rr = do(t, h, http.MethodGet, "/api/market/prices?format=html", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Market Prices")

	rr = do(t, h, http.MethodGet, "/api/market/prices?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketStream(t *testing.T) {
	srv, st := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	forwarded := srv.Start(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	require.Equal(t, TypeSnapshot, msg.Type)
	assert.Equal(t, 1, srv.Hub().Clients())

	st.UpdateSimulation(model.SnapshotPatch{TotalCapacity: model.Float(1300)})
	msg = readMessage(t, conn)
	require.Equal(t, TypeSnapshot, msg.Type)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	assert.Equal(t, 1300.0, snap.TotalCapacity)

	st.AddAlert(model.Alert{ID: "a1", Level: model.LevelCritical, Message: "boom", Time: "10:00:00"})
	msg = readMessage(t, conn)
	require.Equal(t, TypeAlert, msg.Type)
	assert.Contains(t, string(msg.Payload), "boom")

	srv.Notifier().Notify(model.LevelInfo, "hello", "10:00:01")
	msg = readMessage(t, conn)
	require.Equal(t, TypeToast, msg.Type)
	var toast Toast
	require.NoError(t, json.Unmarshal(msg.Payload, &toast))
	assert.Equal(t, Toast{Level: model.LevelInfo, Message: "hello", Time: "10:00:01"}, toast)

	_, err = srv.deps.Dispatch.Submit("WIND-0156", 3)
	require.NoError(t, err)
	msg = readMessage(t, conn)
	require.Equal(t, TypeDispatch, msg.Type)
	assert.Contains(t, string(msg.Payload), "WIND-0156")

	cancel()
	select {
	case <-forwarded:
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder did not stop")
	}
	require.Eventually(t, func() bool { return srv.Hub().Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return errors.Is(srv.Hub().Broadcast(TypeToast, nil), ErrHubClosed)
	}, 2*time.Second, 10*time.Millisecond)
}

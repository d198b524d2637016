package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"netrunner.ai/internal/grid"
	"netrunner.ai/internal/protocol"
)

// fakeHost runs a minimal host on an httptest server: it answers the
// handshake and then replies to requests from a table keyed by type.
type fakeHost struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	// reply builds the response for one decoded request message.
	reply func(base protocol.BaseMessage, raw []byte) any
}

func newFakeHost(t *testing.T, reply func(base protocol.BaseMessage, raw []byte) any) *fakeHost {
	t.Helper()
	h := &fakeHost{reply: reply}
	h.srv = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, _ := protocol.DecodeBase(msg)
		if base.Type != protocol.TypeHello {
			return
		}
		welcome := protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       "S1",
			GridParams: protocol.GridParams{
				SuppressPerUnit: 0.05,
				UnitCosts:       protocol.UnitCosts{Suppress: 1.75, Replenish: 1.75, Harvest: 1.7},
				HomeRig:         "home",
			},
			Player: protocol.PlayerObs{Capability: 3, Money: 1e6},
		}
		if err := conn.WriteJSON(welcome); err != nil {
			return
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if resp := h.reply(base, msg); resp != nil {
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *fakeHost) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func dialTest(t *testing.T, h *fakeHost) *Client {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, h.url(), "test-agent", logger)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDial_HandshakeParams(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any { return nil })
	c := dialTest(t, h)

	if c.SessionID() != "S1" {
		t.Fatalf("session = %q", c.SessionID())
	}
	p := c.Params()
	if p.SuppressPerUnit != 0.05 || p.UnitCosts.Harvest != 1.7 || p.HomeRig != "home" {
		t.Fatalf("params = %+v", p)
	}
}

func TestClient_SnapshotRoundTrip(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any {
		if base.Type != protocol.TypeSnapshotReq {
			return nil
		}
		return protocol.SnapshotMsg{
			Type:            protocol.TypeSnapshot,
			ProtocolVersion: protocol.Version,
			ReqID:           base.ReqID,
			Tick:            7,
			Player:          protocol.PlayerObs{Capability: 4, Money: 500},
			Rigs: []protocol.RigObs{
				{ID: "home", Total: 32, Used: 16},
				{ID: "worker1", Total: 64, Used: 0},
			},
			Targets: []protocol.TargetObs{
				{ID: "alpha", Resource: 100, MaxResource: 400, Resistance: 40, MinResistance: 20, Requirement: 2},
			},
			Catalog: []protocol.ItemObs{{ID: "rig", UnitPrice: 1000, Owned: 2, Max: 8}},
		}
	})
	c := dialTest(t, h)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Tick != 7 || len(snap.Rigs) != 2 || len(snap.Targets) != 1 || len(snap.Catalog) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Rigs[1].Free() != 64 {
		t.Fatalf("worker1 free = %v", snap.Rigs[1].Free())
	}
	if snap.Targets[0].MinResistance != 20 {
		t.Fatalf("target = %+v", snap.Targets[0])
	}
}

func TestClient_EstimatesRoundTrip(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any {
		if base.Type != protocol.TypeEstimateReq {
			return nil
		}
		var req protocol.EstimateReqMsg
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil
		}
		return protocol.EstimateMsg{
			Type:            protocol.TypeEstimate,
			ProtocolVersion: protocol.Version,
			ReqID:           base.ReqID,
			TargetID:        req.TargetID,
			HarvestTimeMs:   10000,
			ReplenishUnits:  12,
			HarvestFraction: 0.0125,
		}
	})
	c := dialTest(t, h)

	est, err := c.Estimates(context.Background(), "alpha", 1.0)
	if err != nil {
		t.Fatalf("Estimates: %v", err)
	}
	if est.HarvestTime != 10*time.Second || est.ReplenishUnits != 12 || est.HarvestFraction != 0.0125 {
		t.Fatalf("estimates = %+v", est)
	}
}

func TestClient_DispatchRefusalIsNotAnError(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any {
		if base.Type != protocol.TypeDispatch {
			return nil
		}
		var req protocol.DispatchMsg
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil
		}
		resp := protocol.DispatchResultMsg{
			Type:            protocol.TypeDispatchResult,
			ProtocolVersion: protocol.Version,
			ReqID:           base.ReqID,
		}
		if req.TargetID == "locked" {
			resp.Code = protocol.ErrNoAccess
		} else {
			resp.Handle = "H1"
		}
		return resp
	})
	c := dialTest(t, h)

	handle, err := c.Dispatch(context.Background(), "home", grid.ActionHarvest, "alpha", 10)
	if err != nil || !handle.OK() {
		t.Fatalf("dispatch alpha: handle=%q err=%v", handle, err)
	}
	handle, err = c.Dispatch(context.Background(), "home", grid.ActionHarvest, "locked", 10)
	if err != nil {
		t.Fatalf("refusal must not be an error: %v", err)
	}
	if handle.OK() {
		t.Fatalf("refused dispatch returned handle %q", handle)
	}
}

func TestClient_HostErrorSurfaces(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any {
		return protocol.ErrorMsg{
			Type:            protocol.TypeError,
			ProtocolVersion: protocol.Version,
			ReqID:           base.ReqID,
			Code:            protocol.ErrUnknownTarget,
			Message:         "no such target",
		}
	})
	c := dialTest(t, h)

	_, err := c.Estimates(context.Background(), "ghost", 1.0)
	var he *HostError
	if !errors.As(err, &he) || he.Code != protocol.ErrUnknownTarget {
		t.Fatalf("err = %v, want HostError %s", err, protocol.ErrUnknownTarget)
	}
}

func TestClient_UnsolicitedMessagesDropped(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any {
		if base.Type != protocol.TypeSnapshotReq {
			return nil
		}
		return protocol.SnapshotMsg{
			Type:            protocol.TypeSnapshot,
			ProtocolVersion: protocol.Version,
			ReqID:           base.ReqID,
			Tick:            1,
		}
	})
	c := dialTest(t, h)

	// A late reply for a req_id nobody waits on must not wedge the reader.
	// Simulate by issuing two snapshots back to back.
	for i := 0; i < 2; i++ {
		if _, err := c.Snapshot(context.Background()); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
	}
}

func TestClient_RequestAfterCloseFails(t *testing.T) {
	h := newFakeHost(t, func(base protocol.BaseMessage, raw []byte) any { return nil })
	c := dialTest(t, h)
	c.Close()

	if _, err := c.Snapshot(context.Background()); err == nil {
		t.Fatal("snapshot after close must fail")
	}
}

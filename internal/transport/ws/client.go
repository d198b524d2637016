// Package ws implements the grid client over a websocket JSON protocol.
// One connection, one reader goroutine, responses correlated by req_id.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"netrunner.ai/internal/grid"
	"netrunner.ai/internal/protocol"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	defaultTimeout   = 10 * time.Second
)

// ErrClosed is returned for requests made after the connection died.
var ErrClosed = errors.New("ws: connection closed")

// HostError is a protocol-level ERROR reply from the host.
type HostError struct {
	Code    string
	Message string
}

func (e *HostError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Client is a connected agent session. It implements grid.Client.
type Client struct {
	conn *websocket.Conn
	log  *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan []byte
	err     error

	reqSeq uint64

	welcome protocol.WelcomeMsg
	done    chan struct{}
	once    sync.Once
}

// Dial connects, performs the HELLO/WELCOME handshake, and starts the
// reader. The returned client is ready for requests.
func Dial(ctx context.Context, url, agentName string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       agentName,
		Capabilities:    protocol.HelloCapabilities{MaxInflight: 8},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeWelcome {
		_ = conn.Close()
		return nil, fmt.Errorf("expected WELCOME, got %q", base.Type)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("decode WELCOME: %w", err)
	}
	if welcome.ProtocolVersion != protocol.Version {
		_ = conn.Close()
		return nil, fmt.Errorf("protocol_version mismatch: host=%s agent=%s", welcome.ProtocolVersion, protocol.Version)
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:    conn,
		log:     logger,
		pending: make(map[string]chan []byte),
		welcome: welcome,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// SessionID is the host-assigned session identifier.
func (c *Client) SessionID() string { return c.welcome.SessionID }

// Params are the fixed grid constants from the handshake.
func (c *Client) Params() grid.Params {
	gp := c.welcome.GridParams
	return grid.Params{
		SuppressPerUnit: gp.SuppressPerUnit,
		UnitCosts: grid.UnitCosts{
			Suppress:  gp.UnitCosts.Suppress,
			Replenish: gp.UnitCosts.Replenish,
			Harvest:   gp.UnitCosts.Harvest,
		},
		HomeRig: gp.HomeRig,
	}
}

func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) shutdown(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("ws: read: %w", err))
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.ReqID == "" {
			// Unsolicited or malformed; nothing waits on it.
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[base.ReqID]
		if ok {
			delete(c.pending, base.ReqID)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}
		ch <- msg
		close(ch)
	}
}

func (c *Client) nextReqID() string {
	return fmt.Sprintf("r%d", atomic.AddUint64(&c.reqSeq, 1))
}

// roundTrip sends one request and waits for the response carrying the
// same req_id. ERROR replies come back as *HostError.
func (c *Client) roundTrip(ctx context.Context, reqID string, req any, wantType string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	ch := make(chan []byte, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[reqID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return nil, fmt.Errorf("ws: write: %w", err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		return nil, err
	case msg, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			return nil, err
		}
		if base.Type == protocol.TypeError {
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				return nil, err
			}
			return nil, &HostError{Code: em.Code, Message: em.Message}
		}
		if base.Type != wantType {
			return nil, fmt.Errorf("expected %s, got %q", wantType, base.Type)
		}
		return msg, nil
	}
}

func (c *Client) Snapshot(ctx context.Context) (grid.Snapshot, error) {
	reqID := c.nextReqID()
	msg, err := c.roundTrip(ctx, reqID, protocol.SnapshotReqMsg{
		Type:            protocol.TypeSnapshotReq,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
	}, protocol.TypeSnapshot)
	if err != nil {
		return grid.Snapshot{}, err
	}
	var sm protocol.SnapshotMsg
	if err := json.Unmarshal(msg, &sm); err != nil {
		return grid.Snapshot{}, err
	}
	return snapshotFromMsg(sm), nil
}

func snapshotFromMsg(sm protocol.SnapshotMsg) grid.Snapshot {
	snap := grid.Snapshot{
		Tick: sm.Tick,
		Player: grid.Player{
			Capability: sm.Player.Capability,
			Money:      sm.Player.Money,
		},
	}
	for _, r := range sm.Rigs {
		snap.Rigs = append(snap.Rigs, grid.Rig{ID: r.ID, Total: r.Total, Used: r.Used})
	}
	for _, t := range sm.Targets {
		snap.Targets = append(snap.Targets, grid.Target{
			ID:            t.ID,
			Resource:      t.Resource,
			MaxResource:   t.MaxResource,
			Resistance:    t.Resistance,
			MinResistance: t.MinResistance,
			Requirement:   t.Requirement,
			Owned:         t.Owned,
		})
	}
	for _, q := range sm.Quotes {
		snap.Quotes = append(snap.Quotes, grid.Quote{
			Symbol:      q.Symbol,
			Price:       q.Price,
			Forecast:    q.Forecast,
			Volatility:  q.Volatility,
			Spread:      q.Spread,
			Position:    q.Position,
			MaxPosition: q.MaxPosition,
		})
	}
	for _, it := range sm.Catalog {
		snap.Catalog = append(snap.Catalog, grid.Item{
			ID: it.ID, UnitPrice: it.UnitPrice, Owned: it.Owned, Max: it.Max,
		})
	}
	return snap
}

func (c *Client) Estimates(ctx context.Context, targetID string, multiplier float64) (grid.Estimates, error) {
	reqID := c.nextReqID()
	msg, err := c.roundTrip(ctx, reqID, protocol.EstimateReqMsg{
		Type:            protocol.TypeEstimateReq,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		TargetID:        targetID,
		Multiplier:      multiplier,
	}, protocol.TypeEstimate)
	if err != nil {
		return grid.Estimates{}, err
	}
	var em protocol.EstimateMsg
	if err := json.Unmarshal(msg, &em); err != nil {
		return grid.Estimates{}, err
	}
	return grid.Estimates{
		HarvestTime:     time.Duration(em.HarvestTimeMs) * time.Millisecond,
		ReplenishUnits:  em.ReplenishUnits,
		HarvestFraction: em.HarvestFraction,
	}, nil
}

func (c *Client) Dispatch(ctx context.Context, rigID string, kind grid.ActionKind, targetID string, units int) (grid.Handle, error) {
	reqID := c.nextReqID()
	msg, err := c.roundTrip(ctx, reqID, protocol.DispatchMsg{
		Type:            protocol.TypeDispatch,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		RigID:           rigID,
		Action:          kind.String(),
		TargetID:        targetID,
		Units:           units,
	}, protocol.TypeDispatchResult)
	if err != nil {
		return "", err
	}
	var dr protocol.DispatchResultMsg
	if err := json.Unmarshal(msg, &dr); err != nil {
		return "", err
	}
	// Refusal is an empty handle, not an error: the scheduler keeps going.
	if dr.Handle == "" && c.log != nil {
		c.log.Printf("dispatch refused rig=%s target=%s code=%s", rigID, targetID, dr.Code)
	}
	return grid.Handle(dr.Handle), nil
}

func (c *Client) Trade(ctx context.Context, symbol string, side grid.TradeSide, shares int64) (grid.TradeResult, error) {
	reqID := c.nextReqID()
	msg, err := c.roundTrip(ctx, reqID, protocol.TradeMsg{
		Type:            protocol.TypeTrade,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Symbol:          symbol,
		Side:            string(side),
		Shares:          shares,
	}, protocol.TypeTradeResult)
	if err != nil {
		return grid.TradeResult{}, err
	}
	var tr protocol.TradeResultMsg
	if err := json.Unmarshal(msg, &tr); err != nil {
		return grid.TradeResult{}, err
	}
	return grid.TradeResult{FilledShares: tr.FilledShares, AvgPrice: tr.AvgPrice, Code: tr.Code}, nil
}

func (c *Client) Purchase(ctx context.Context, itemID string, qty int) (grid.PurchaseResult, error) {
	reqID := c.nextReqID()
	msg, err := c.roundTrip(ctx, reqID, protocol.PurchaseMsg{
		Type:            protocol.TypePurchase,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		ItemID:          itemID,
		Qty:             qty,
	}, protocol.TypePurchaseResult)
	if err != nil {
		return grid.PurchaseResult{}, err
	}
	var pr protocol.PurchaseResultMsg
	if err := json.Unmarshal(msg, &pr); err != nil {
		return grid.PurchaseResult{}, err
	}
	return grid.PurchaseResult{Bought: pr.Bought, Spent: pr.Spent, Code: pr.Code}, nil
}

package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello          = "HELLO"
	TypeWelcome        = "WELCOME"
	TypeSnapshotReq    = "SNAPSHOT_REQ"
	TypeSnapshot       = "SNAPSHOT"
	TypeEstimateReq    = "ESTIMATE_REQ"
	TypeEstimate       = "ESTIMATE"
	TypeDispatch       = "DISPATCH"
	TypeDispatchResult = "DISPATCH_RESULT"
	TypeTrade          = "TRADE"
	TypeTradeResult    = "TRADE_RESULT"
	TypePurchase       = "PURCHASE"
	TypePurchaseResult = "PURCHASE_RESULT"
	TypeError          = "ERROR"
)

// Action names on the wire.
const (
	ActionSuppress  = "SUPPRESS"
	ActionReplenish = "REPLENISH"
	ActionHarvest   = "HARVEST"
)

// BaseMessage lets us route unknown JSON messages by type and correlate
// responses by req_id.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ReqID           string `json:"req_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

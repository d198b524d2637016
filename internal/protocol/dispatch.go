package protocol

// DISPATCH (agent -> host): run `units` of an action against a target on a rig.
type DispatchMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	RigID           string `json:"rig_id"`
	Action          string `json:"action"`
	TargetID        string `json:"target_id"`
	Units           int    `json:"units"`
}

// DISPATCH_RESULT (host -> agent). Handle is empty when the host refused.
type DispatchResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Handle          string `json:"handle"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// TRADE (agent -> host)
type TradeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"` // "BUY" or "SELL"
	Shares          int64  `json:"shares"`
}

// TRADE_RESULT (host -> agent)
type TradeResultMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	FilledShares    int64   `json:"filled_shares"`
	AvgPrice        float64 `json:"avg_price"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
}

// PURCHASE (agent -> host): buy game items (rigs, upgrades).
type PurchaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	ItemID          string `json:"item_id"`
	Qty             int    `json:"qty"`
}

// PURCHASE_RESULT (host -> agent)
type PurchaseResultMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Bought          int     `json:"bought"`
	Spent           float64 `json:"spent"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
}

package protocol

// SNAPSHOT_REQ (agent -> host)
type SnapshotReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
}

// SNAPSHOT (host -> agent): the whole observable world in one message.
type SnapshotMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ReqID           string      `json:"req_id"`
	Tick            uint64      `json:"tick"`
	Player          PlayerObs   `json:"player"`
	Rigs            []RigObs    `json:"rigs"`
	Targets         []TargetObs `json:"targets"`
	Quotes          []QuoteObs  `json:"quotes,omitempty"`
	Catalog         []ItemObs   `json:"catalog,omitempty"`
}

type ItemObs struct {
	ID        string  `json:"id"`
	UnitPrice float64 `json:"unit_price"`
	Owned     int     `json:"owned"`
	Max       int     `json:"max,omitempty"`
}

type RigObs struct {
	ID    string  `json:"id"`
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
}

type TargetObs struct {
	ID            string  `json:"id"`
	Resource      float64 `json:"resource"`
	MaxResource   float64 `json:"max_resource"`
	Resistance    float64 `json:"resistance"`
	MinResistance float64 `json:"min_resistance"`
	Requirement   int     `json:"requirement"`
	Owned         bool    `json:"owned"`
}

type QuoteObs struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Forecast    float64 `json:"forecast"`   // probability of an up movement, 0..1
	Volatility  float64 `json:"volatility"` // per-tick movement magnitude, 0..1
	Spread      float64 `json:"spread"`
	Position    int64   `json:"position"`
	MaxPosition int64   `json:"max_position"`
}

// ESTIMATE_REQ (agent -> host): all per-target estimates in one round trip.
type EstimateReqMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	TargetID        string  `json:"target_id"`
	Multiplier      float64 `json:"multiplier"`
}

// ESTIMATE (host -> agent)
type EstimateMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	TargetID        string  `json:"target_id"`
	HarvestTimeMs   int64   `json:"harvest_time_ms"`
	ReplenishUnits  int     `json:"replenish_units"`
	HarvestFraction float64 `json:"harvest_fraction"`
}

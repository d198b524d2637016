package protocol

// HELLO (agent -> host)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
	Auth            *HelloAuth        `json:"auth,omitempty"`
}

type HelloCapabilities struct {
	MaxInflight int  `json:"max_inflight,omitempty"`
	BatchEst    bool `json:"batch_estimates,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (host -> agent)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	GridParams      GridParams `json:"grid_params"`
	Player          PlayerObs  `json:"player"`
}

// GridParams are the fixed per-unit constants of the simulation. The host
// owns the formulas; the agent only ever sees these scalars.
type GridParams struct {
	// Resistance removed by one SUPPRESS unit.
	SuppressPerUnit float64 `json:"suppress_per_unit"`
	// Capacity cost of one unit of each action.
	UnitCosts UnitCosts `json:"unit_costs"`
	// Rig the agent itself runs on; subject to the reservation policy.
	HomeRig string `json:"home_rig"`
	TickMs  int    `json:"tick_ms,omitempty"`
}

type UnitCosts struct {
	Suppress  float64 `json:"suppress"`
	Replenish float64 `json:"replenish"`
	Harvest   float64 `json:"harvest"`
}

type PlayerObs struct {
	Capability int     `json:"capability"`
	Money      float64 `json:"money"`
}

// ERROR (host -> agent): protocol-level reject of a request.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	AgentName string `yaml:"agent_name"`

	Cycle    Cycle    `yaml:"cycle"`
	Market   Market   `yaml:"market"`
	Purchase Purchase `yaml:"purchase"`
}

type Cycle struct {
	MinWaitMs    int `yaml:"min_wait_ms"`
	MaxWaitMs    int `yaml:"max_wait_ms"`
	WaitMarginMs int `yaml:"wait_margin_ms"`

	TopTargets       int      `yaml:"top_targets"`
	ResistanceBuffer float64  `yaml:"resistance_buffer"`
	ResourceFraction float64  `yaml:"resource_fraction"`
	HarvestFraction  float64  `yaml:"harvest_fraction"`
	HomeReserve      float64  `yaml:"home_reserve"`
	ExcludePrefixes  []string `yaml:"exclude_prefixes"`
}

type Market struct {
	Enabled       bool    `yaml:"enabled"`
	BuyThreshold  float64 `yaml:"buy_threshold"`
	SellThreshold float64 `yaml:"sell_threshold"`
	MaxOrderValue float64 `yaml:"max_order_value"`
	CashFloor     float64 `yaml:"cash_floor"`
}

type Purchase struct {
	Enabled       bool    `yaml:"enabled"`
	CostEscalator float64 `yaml:"cost_escalator"`
	BudgetShare   float64 `yaml:"budget_share"`
}

func Defaults() Tuning {
	return Tuning{
		AgentName: "netrunner",
		Cycle: Cycle{
			MinWaitMs:        1000,
			MaxWaitMs:        60000,
			WaitMarginMs:     500,
			TopTargets:       8,
			ResistanceBuffer: 5,
			ResourceFraction: 0.9,
			HarvestFraction:  0.25,
			HomeReserve:      16,
			ExcludePrefixes:  []string{"rig-"},
		},
		Market: Market{
			Enabled:       false,
			BuyThreshold:  0.12,
			SellThreshold: -0.02,
			MaxOrderValue: 1e9,
			CashFloor:     1e6,
		},
		Purchase: Purchase{
			Enabled:       false,
			CostEscalator: 1.06,
			BudgetShare:   0.5,
		},
	}
}

// Load reads tuning.yaml over the defaults, so a partial file only overrides
// what it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

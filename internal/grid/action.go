package grid

import (
	"fmt"

	"netrunner.ai/internal/protocol"
)

// ActionKind is the closed set of things the controller can ask a rig to do
// to a target. Keeping it a real enum means every mapping over actions is a
// total switch the compiler checks, instead of dispatch by string key.
type ActionKind int

const (
	ActionSuppress ActionKind = iota
	ActionReplenish
	ActionHarvest
)

func (k ActionKind) String() string {
	switch k {
	case ActionSuppress:
		return protocol.ActionSuppress
	case ActionReplenish:
		return protocol.ActionReplenish
	case ActionHarvest:
		return protocol.ActionHarvest
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

func ParseAction(s string) (ActionKind, error) {
	switch s {
	case protocol.ActionSuppress:
		return ActionSuppress, nil
	case protocol.ActionReplenish:
		return ActionReplenish, nil
	case protocol.ActionHarvest:
		return ActionHarvest, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Cost returns the capacity cost of one unit of the action.
func (c UnitCosts) Cost(k ActionKind) float64 {
	switch k {
	case ActionSuppress:
		return c.Suppress
	case ActionReplenish:
		return c.Replenish
	case ActionHarvest:
		return c.Harvest
	}
	return 0
}

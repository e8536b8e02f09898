package api

import "errors"

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p StartPayload) Validate() error {
	switch p.Mode {
	case "gauntlet", "bossRush", "endless", "tutorial":
		return nil
	}
	return errors.New("unknown game mode")
}

func (p InputPayload) Validate() error {
	switch p.Attack {
	case "", "light", "heavy":
	default:
		return errors.New("unknown attack kind")
	}
	switch p.Dodge {
	case "", "left", "right", "up", "down":
	default:
		return errors.New("unknown dodge direction")
	}
	return nil
}

func (p ScoreboardPayload) Validate() error {
	if p.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

package entity

// Switch is a two-state on/off entity.
type Switch struct {
	*Entity
}

// NewSwitch creates a switch entity.
func NewSwitch(cfg Config) (*Switch, error) {
	e, err := New(TypeSwitch, cfg)
	if err != nil {
		return nil, err
	}
	return &Switch{Entity: e}, nil
}

// TurnOn transitions the switch to ON and emits an on event.
func (s *Switch) TurnOn() error {
	if err := s.SetState(StateOn); err != nil {
		return err
	}
	s.publish(EventTurnOn, StateOn)
	return nil
}

// TurnOff transitions the switch to OFF and emits an off event.
func (s *Switch) TurnOff() error {
	if err := s.SetState(StateOff); err != nil {
		return err
	}
	s.publish(EventTurnOff, StateOff)
	return nil
}

// Toggle flips the switch. Any state other than ON (including UNKNOWN)
// toggles to ON. The emitted toggle event carries the resulting
// on-ness as a bool.
func (s *Switch) Toggle() error {
	on := s.State() != StateOn
	next := StateOff
	if on {
		next = StateOn
	}
	if err := s.SetState(next); err != nil {
		return err
	}
	s.publish(EventToggle, on)
	return nil
}

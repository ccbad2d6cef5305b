package entity

// Button is a stateless press-only entity.
type Button struct {
	*Entity
}

// NewButton creates a button entity. Buttons report AVAILABLE when
// reachable and emit a pressed event on each press.
func NewButton(cfg Config) (*Button, error) {
	e, err := New(TypeButton, cfg)
	if err != nil {
		return nil, err
	}
	return &Button{Entity: e}, nil
}

// Press emits a pressed event.
func (b *Button) Press() {
	b.publish(EventPressed, true)
}

package entity

// Projection is the serialisable view of an entity used in
// available_entities responses and the REST mirror.
type Projection struct {
	EntityID    string            `json:"entity_id"`
	EntityType  Type              `json:"entity_type"`
	DeviceID    string            `json:"device_id,omitempty"`
	Name        map[string]string `json:"name"`
	Features    []Feature         `json:"features,omitempty"`
	Area        string            `json:"area,omitempty"`
	DeviceClass DeviceClass       `json:"device_class,omitempty"`
}

// Format produces the entity's projection.
//
// The name map carries the entity's base name under lang (the server's
// configured default language) merged with any explicit alt-names.
// Alt-names never override the default-language entry.
func (e *Entity) Format(lang string) Projection {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make(map[string]string, len(e.altNames)+1)
	for code, name := range e.altNames {
		names[code] = name
	}
	names[lang] = e.name

	p := Projection{
		EntityID:    e.id,
		EntityType:  e.typ,
		DeviceID:    e.deviceID,
		Name:        names,
		Area:        e.area,
		DeviceClass: e.deviceClass,
	}
	if len(e.features) > 0 {
		p.Features = make([]Feature, len(e.features))
		copy(p.Features, e.features)
	}
	return p
}

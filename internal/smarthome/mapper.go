package smarthome

import (
	"context"
	"fmt"
)

// listExposedDevices builds the SYNC device list from a full registry scan.
//
// Descriptors are recomputed from live entity state on every call — exposure,
// names, and aliases can all change between requests, so nothing is cached.
func (b *Bridge) listExposedDevices(ctx context.Context) ([]Device, error) {
	entities, err := b.gw.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	devices := make([]Device, 0, len(entities))
	for i := range entities {
		ent := &entities[i]
		if !Exposed(ent, b.cfg.Exposure) {
			continue
		}

		m, ok := MappingFor(ent.Domain)
		if !ok {
			b.logger.Warn("no device mapping for domain",
				"domain", ent.Domain,
				"entity_id", ent.ID,
			)
			continue
		}

		devices = append(devices, Device{
			ID:     ent.ID,
			Type:   m.Type,
			Traits: m.Traits(ent),
			Name: DeviceName{
				Name:      displayName(ent, b.cfg.Exposure),
				Nicknames: aliases(ent, b.cfg.Exposure),
			},
		})
	}

	return devices, nil
}

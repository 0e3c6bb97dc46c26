package hass

import "context"

// Registry collections are assembled from the raw WebSocket registry rows.
// An entity belongs to an area either directly (its own area assignment) or
// through its device; floors collect only directly assigned entities.

// Devices fetches the device collection with owned entity IDs.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	snap, err := c.fetchRegistries(ctx)
	if err != nil {
		return nil, err
	}
	return snap.assembleDevices(), nil
}

// Areas fetches the area collection with member device and entity IDs.
func (c *Client) Areas(ctx context.Context) ([]Area, error) {
	snap, err := c.fetchRegistries(ctx)
	if err != nil {
		return nil, err
	}
	return snap.assembleAreas(), nil
}

// Floors fetches the floor collection with member area IDs and directly
// assigned entity IDs.
func (c *Client) Floors(ctx context.Context) ([]Floor, error) {
	snap, err := c.fetchRegistries(ctx)
	if err != nil {
		return nil, err
	}
	return snap.assembleFloors(), nil
}

// Labels fetches the label collection with attached area/device/entity IDs.
func (c *Client) Labels(ctx context.Context) ([]Label, error) {
	snap, err := c.fetchRegistries(ctx)
	if err != nil {
		return nil, err
	}
	return snap.assembleLabels(), nil
}

// IntegrationEntityIDs fetches the entity IDs owned by an integration
// (entity registry rows whose platform matches).
func (c *Client) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	snap, err := c.fetchRegistries(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, row := range snap.entities {
		if row.Platform == integration {
			ids = append(ids, row.EntityID)
		}
	}
	return ids, nil
}

func (s *registrySnapshot) assembleDevices() []Device {
	entitiesByDevice := make(map[string][]string)
	for _, row := range s.entities {
		if row.DeviceID != "" {
			entitiesByDevice[row.DeviceID] = append(entitiesByDevice[row.DeviceID], row.EntityID)
		}
	}

	devices := make([]Device, 0, len(s.devices))
	for _, row := range s.devices {
		devices = append(devices, Device{
			ID:           row.ID,
			Name:         row.Name,
			NameByUser:   row.NameByUser,
			AreaID:       row.AreaID,
			Manufacturer: row.Manufacturer,
			Model:        row.Model,
			ModelID:      row.ModelID,
			SWVersion:    row.SWVersion,
			HWVersion:    row.HWVersion,
			SerialNumber: row.SerialNumber,
			Entities:     entitiesByDevice[row.ID],
		})
	}
	return devices
}

func (s *registrySnapshot) assembleAreas() []Area {
	deviceArea := make(map[string]string, len(s.devices))
	devicesByArea := make(map[string][]string)
	for _, row := range s.devices {
		deviceArea[row.ID] = row.AreaID
		if row.AreaID != "" {
			devicesByArea[row.AreaID] = append(devicesByArea[row.AreaID], row.ID)
		}
	}

	entitiesByArea := make(map[string][]string)
	for _, row := range s.entities {
		areaID := row.AreaID
		if areaID == "" && row.DeviceID != "" {
			areaID = deviceArea[row.DeviceID]
		}
		if areaID != "" {
			entitiesByArea[areaID] = append(entitiesByArea[areaID], row.EntityID)
		}
	}

	areas := make([]Area, 0, len(s.areas))
	for _, row := range s.areas {
		areas = append(areas, Area{
			ID:       row.AreaID,
			Name:     row.Name,
			FloorID:  row.FloorID,
			Devices:  devicesByArea[row.AreaID],
			Entities: entitiesByArea[row.AreaID],
		})
	}
	return areas
}

func (s *registrySnapshot) assembleFloors() []Floor {
	areasByFloor := make(map[string][]string)
	areaFloor := make(map[string]string, len(s.areas))
	for _, row := range s.areas {
		if row.FloorID != "" {
			areasByFloor[row.FloorID] = append(areasByFloor[row.FloorID], row.AreaID)
			areaFloor[row.AreaID] = row.FloorID
		}
	}

	// Only entities with their own area assignment count as directly
	// assigned to a floor; device-inherited placement stays at area level.
	entitiesByFloor := make(map[string][]string)
	for _, row := range s.entities {
		if row.AreaID == "" {
			continue
		}
		if floorID := areaFloor[row.AreaID]; floorID != "" {
			entitiesByFloor[floorID] = append(entitiesByFloor[floorID], row.EntityID)
		}
	}

	floors := make([]Floor, 0, len(s.floors))
	for _, row := range s.floors {
		floors = append(floors, Floor{
			ID:       row.FloorID,
			Name:     row.Name,
			Areas:    areasByFloor[row.FloorID],
			Entities: entitiesByFloor[row.FloorID],
		})
	}
	return floors
}

func (s *registrySnapshot) assembleLabels() []Label {
	areasByLabel := make(map[string][]string)
	for _, row := range s.areas {
		for _, l := range row.Labels {
			areasByLabel[l] = append(areasByLabel[l], row.AreaID)
		}
	}
	devicesByLabel := make(map[string][]string)
	for _, row := range s.devices {
		for _, l := range row.Labels {
			devicesByLabel[l] = append(devicesByLabel[l], row.ID)
		}
	}
	entitiesByLabel := make(map[string][]string)
	for _, row := range s.entities {
		for _, l := range row.Labels {
			entitiesByLabel[l] = append(entitiesByLabel[l], row.EntityID)
		}
	}

	labels := make([]Label, 0, len(s.labels))
	for _, row := range s.labels {
		labels = append(labels, Label{
			ID:          row.LabelID,
			Name:        row.Name,
			Description: row.Description,
			Areas:       areasByLabel[row.LabelID],
			Devices:     devicesByLabel[row.LabelID],
			Entities:    entitiesByLabel[row.LabelID],
		})
	}
	return labels
}

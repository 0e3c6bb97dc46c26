// Package api provides the operational HTTP surface for HASS Bridge Core.
//
// It exposes health, the synthesized command inventory, snapshot cache
// status, and the usage log over a small JSON REST API. All routes except
// health sit behind a JWT bearer check.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

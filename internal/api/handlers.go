package api

import "skydeck/flightdeck/internal/jobs"

// Handlers bundles the HTTP handlers with their dependencies.
type Handlers struct {
	deps       *Dependencies
	refreshJob *jobs.StatusRefreshJob
}

// NewHandlers creates the handler set. The refresh job is passed separately
// because it is started after dependency wiring.
func NewHandlers(deps *Dependencies, refreshJob *jobs.StatusRefreshJob) *Handlers {
	return &Handlers{deps: deps, refreshJob: refreshJob}
}

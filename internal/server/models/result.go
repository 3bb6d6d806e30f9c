package models

import "time"

// Platform tags distinguish where a simulation result was produced.
const (
	PlatformWeb = 1
	PlatformVR  = 2
)

// Result is one simulation outcome for a (user, platform, scene)
// combination. Data carries the raw submitted report as JSON.
type Result struct {
	UserID      int64
	Platform    int
	Scene       int
	Date        time.Time
	Data        string
	Signals     int
	SignalsOK   int
	Distances   int
	DistancesOK int
}

package daemon

import "github.com/lekki-ent/marquee/internal/display"

// Control socket methods.
const (
	MethodStatus   = "status"
	MethodHeroNext = "hero.next"
	MethodHeroPrev = "hero.prev"
	MethodHeroJump = "hero.jump"
	MethodStop     = "stop"
)

// Request is one JSON request line from a client.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// StatusResponse describes a running display daemon.
type StatusResponse struct {
	Status    string           `json:"status"`
	PID       int              `json:"pid"`
	Uptime    string           `json:"uptime"`
	StartTime string           `json:"start_time"`
	HTTPAddr  string           `json:"http_addr,omitempty"`
	Clients   int              `json:"clients"`
	Display   display.Snapshot `json:"display"`
}

// HeroResponse is the hero state after a navigation call.
type HeroResponse struct {
	Index int              `json:"index"`
	Hero  display.HeroView `json:"hero"`
}

// JumpParams selects a hero slide. Out-of-range values wrap.
type JumpParams struct {
	Index int `json:"index"`
}

// StopParams contains parameters for the stop method.
type StopParams struct {
	Force bool `json:"force,omitempty"`
}

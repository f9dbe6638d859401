package monitor

import "time"

type Status struct {
	Online    bool      `json:"online"`
	LastError string    `json:"last_error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

package api

import (
	"github.com/vytor/openingdrill/internal/services"
)

// Server exposes the practice engine over JSON HTTP.
type Server struct {
	PracticeService services.PracticeService
	// Ping reports store health for /ready. Nil means always ready.
	Ping func() error
}

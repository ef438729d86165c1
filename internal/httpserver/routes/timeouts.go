package routes

import (
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Request timeouts. Streaming routes register without one.
const (
	probeTimeout = 3 * time.Second
	apiTimeout   = 10 * time.Second
)

var (
	withProbeTimeout = middleware.Timeout(probeTimeout)
	withAPITimeout   = middleware.Timeout(apiTimeout)
)

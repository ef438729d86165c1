package utils

import (
	"io"

	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup on error paths where the original error matters more.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs any error under the given component name.
func CloseLogged(c io.Closer, log logger.Logger, component string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("component", component),
			logger.Error(err))
	}
}

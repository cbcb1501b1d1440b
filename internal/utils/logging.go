package utils

import (
	"go.uber.org/zap"
)

// NewLogger builds the service logger: JSON production output in
// production, human readable development output elsewhere.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Package service wires the feature pipeline, the trained model and the
// repository into the operations the HTTP layer exposes.
package service

import (
	"github.com/smartcity/trafficast/internal/domain"
)

// Repository is re-exported from domain for convenience
type Repository = domain.Repository

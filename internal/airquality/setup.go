package airquality

import (
	"errors"
	"fmt"

	"github.com/AirSense/AirSense-Backend/internal/config"
	"github.com/AirSense/AirSense-Backend/internal/db"
)

// Init wires the store onto the shared connection in db.DB.
func Init(cfg *config.Config) (*Handler, error) {
	if db.DB == nil {
		return nil, errors.New("airquality: database is not connected")
	}
	limits, err := DefaultLimits()
	if err != nil {
		return nil, fmt.Errorf("airquality: %w", err)
	}
	store := NewStore(db.DB, cfg.Database.Schema)
	return NewHandler(store, limits, cfg.Health.Secret), nil
}

package store

import (
	"context"
	"strings"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/apperr"
	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

type LocationInput struct {
	Name        string              `json:"name"`
	Address     string              `json:"address"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Description string              `json:"description"`
}

func (s *Store) CreateLocation(ctx context.Context, in LocationInput) (models.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Address == "" {
		return models.Location{}, apperr.Validation("location name and address are required")
	}
	if c := in.Coordinates; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return models.Location{}, apperr.Validation("coordinates out of range")
		}
	}

	location := models.Location{
		ID:          s.newID(),
		Name:        in.Name,
		Address:     in.Address,
		Coordinates: in.Coordinates,
		Description: in.Description,
	}
	err := s.Update(ctx, func(tx *Tx) error {
		locations, err := tx.Locations()
		if err != nil {
			return err
		}
		tx.SetLocations(append(locations, location))
		return nil
	})
	if err != nil {
		return models.Location{}, err
	}
	return location, nil
}

func (s *Store) Location(ctx context.Context, id string) (models.Location, error) {
	var location models.Location
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		location, err = tx.Location(id)
		return err
	})
	return location, err
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	err := s.View(ctx, func(tx *Tx) error {
		items, err := tx.Locations()
		locations = append([]models.Location(nil), items...)
		return err
	})
	return locations, err
}

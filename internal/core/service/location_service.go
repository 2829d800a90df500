package service

import (
	"context"
	"fmt"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

// LocationService lists login locations on behalf of the request session.
type LocationService struct {
	api ports.ClinicalAPI
}

func NewLocationService(api ports.ClinicalAPI) *LocationService {
	return &LocationService{api: api}
}

func (s *LocationService) LoginLocations(ctx context.Context, rs ports.RequestSession) ([]domain.Location, error) {
	headers, err := rs.Headers()
	if err != nil {
		return nil, rs.Check(err)
	}
	locs, err := s.api.LoginLocations(ctx, headers)
	if err != nil {
		return nil, rs.Check(fmt.Errorf("login locations: %w", err))
	}
	return locs, nil
}

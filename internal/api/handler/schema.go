package handler

import "github.com/openhms/hms-portal/internal/core/domain"

type loginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginResponse struct {
	User     *domain.User     `json:"user"`
	Location *domain.Location `json:"session_location,omitempty"`
	Locale   string           `json:"locale,omitempty"`
}

type locationRequest struct {
	UUID    string `json:"uuid"    validate:"required,max=64,printascii"`
	Display string `json:"display" validate:"required,max=255"`
}

type navigationResponse struct {
	Items []domain.NavEntry `json:"items"`
}

type locationsResponse struct {
	Locations []domain.Location `json:"locations"`
}

// pageError is the inline failure of one part of a page.
type pageError struct {
	Error string `json:"error"`
	Retry bool   `json:"retry"`
}

type dashboardResponse struct {
	Session        domain.SessionSnapshot `json:"session"`
	Navigation     []domain.NavEntry      `json:"navigation"`
	Locations      []domain.Location      `json:"locations"`
	LocationsError *pageError             `json:"locations_error,omitempty"`
}

// clinicalPageResponse is the shell of one gated clinical page.
type clinicalPageResponse struct {
	Session domain.SessionSnapshot `json:"session"`
	Page    domain.NavEntry        `json:"page"`
}

type loginPageResponse struct {
	Page  string `json:"page"`
	Login string `json:"login_endpoint"`
}

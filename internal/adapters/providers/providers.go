// Package providers builds the configured mapping and photo providers.
package providers

import (
	"github.com/mjsgreen01/Instatrip/internal/adapters/google"
	"github.com/mjsgreen01/Instatrip/internal/adapters/instagram"
	"github.com/mjsgreen01/Instatrip/internal/adapters/osrm"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/pkg/config"
)

// Routes returns the route provider selected by route_provider.
func Routes(cfg *config.Config) ports.RouteProvider {
	if cfg.RouteProvider == "osrm" {
		return osrm.NewRouteClient(cfg.OSRM.BaseURL, cfg.OSRM.Timeout)
	}
	return google.NewDirectionsClient(cfg.GoogleMaps.BaseURL, cfg.GoogleMaps.APIKey, cfg.GoogleMaps.Timeout)
}

// Photos returns the photo provider.
func Photos(cfg *config.Config) ports.PhotoProvider {
	return instagram.NewMediaClient(cfg.Photos.BaseURL, cfg.Photos.APIKey, cfg.Photos.CallTimeout)
}

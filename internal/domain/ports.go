package domain

import "context"

// FireFeed fetches the current fire detections.
type FireFeed interface {
	FetchFireLocations(ctx context.Context) ([]Coordinate, error)
}

// WeatherProvider looks up current weather for a coordinate.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (Weather, error)
}

// LocationResolver reverse-geocodes a coordinate into administrative names.
type LocationResolver interface {
	LocationName(ctx context.Context, lat, lon float64) (Place, error)
}

// TextGenerator sends a prompt to a generative model and returns its reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MarkerStore persists wildfire markers.
type MarkerStore interface {
	DeleteAllMarkers(ctx context.Context) (int64, error)
	InsertMarker(ctx context.Context, loc Coordinate) (string, error)
	ListMarkers(ctx context.Context) ([]Marker, error)
	UpdateMarkerEnrichment(ctx context.Context, id string, e Enrichment) error
}

// UserStore persists user credentials.
type UserStore interface {
	AddUser(ctx context.Context, c Credential) (string, error)
	// FindUser returns the first credential with the given username, or
	// ErrUserNotFound.
	FindUser(ctx context.Context, username string) (Credential, error)
}

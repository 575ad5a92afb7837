// Package mongo stores wildfire markers and user credentials in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	markerCollection = "wildfire_coord"
	userCollection   = "data"
)

// Store implements domain.MarkerStore and domain.UserStore.
type Store struct {
	client  *mongo.Client
	markers *mongo.Collection
	users   *mongo.Collection
	logger  *slog.Logger
}

// Connect opens a client for uri and verifies it with a ping bounded by timeout.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// NewStore binds the marker and user collections of database.
func NewStore(client *mongo.Client, database string, logger *slog.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client:  client,
		markers: db.Collection(markerCollection),
		users:   db.Collection(userCollection),
		logger:  logger,
	}
}

// markerDoc is the stored shape of a marker.
type markerDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Location      []float64     `bson:"location"`
	Temperature   *float64      `bson:"temperature,omitempty"`
	Humidity      *float64      `bson:"humidity,omitempty"`
	WindSpeed     *float64      `bson:"wind_speed,omitempty"`
	WindDirection *float64      `bson:"wind_direction,omitempty"`
	WindGust      *float64      `bson:"wind_gust,omitempty"`
	Rain          *float64      `bson:"rain,omitempty"`
	Clouds        *float64      `bson:"clouds,omitempty"`
	Country       *string       `bson:"country,omitempty"`
	State         *string       `bson:"state,omitempty"`
}

func (d markerDoc) toDomain() (domain.Marker, error) {
	loc, err := domain.CoordinateFromPair(d.Location)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("marker %s: %w", d.ID.Hex(), err)
	}
	return domain.Marker{
		ID:            d.ID.Hex(),
		Location:      loc,
		Temperature:   d.Temperature,
		Humidity:      d.Humidity,
		WindSpeed:     d.WindSpeed,
		WindDirection: d.WindDirection,
		WindGust:      d.WindGust,
		Rain:          d.Rain,
		Clouds:        d.Clouds,
		Country:       d.Country,
		State:         d.State,
	}, nil
}

type userDoc struct {
	Username string `bson:"username"`
	Password string `bson:"password"`
}

// DeleteAllMarkers removes every marker and returns how many were deleted.
func (s *Store) DeleteAllMarkers(ctx context.Context) (int64, error) {
	res, err := s.markers.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete markers: %w", err)
	}
	return res.DeletedCount, nil
}

// InsertMarker stores a bare marker at loc and returns its hex ID.
func (s *Store) InsertMarker(ctx context.Context, loc domain.Coordinate) (string, error) {
	pair := loc.Pair()
	res, err := s.markers.InsertOne(ctx, markerDoc{Location: pair[:]})
	if err != nil {
		return "", fmt.Errorf("insert marker: %w", err)
	}
	return decodeInsertedID(res.InsertedID), nil
}

// ListMarkers returns every stored marker in natural order. Documents that do
// not decode, such as legacy rows with string coordinates, or that carry a
// malformed location are logged and left out.
func (s *Store) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	cursor, err := s.markers.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find markers: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeMarkers(ctx, cursor, s.logger)
}

// markerCursor is the subset of *mongo.Cursor used to stream markers.
type markerCursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
}

func decodeMarkers(ctx context.Context, cursor markerCursor, logger *slog.Logger) ([]domain.Marker, error) {
	var markers []domain.Marker
	skipped := 0
	for cursor.Next(ctx) {
		var d markerDoc
		if err := cursor.Decode(&d); err != nil {
			skipped++
			logger.Warn("skipping undecodable marker", "error", err)
			continue
		}
		m, err := d.toDomain()
		if err != nil {
			skipped++
			logger.Warn("skipping stored marker", "error", err)
			continue
		}
		markers = append(markers, m)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}
	if skipped > 0 {
		logger.Info("marker listing skipped documents", "skipped", skipped, "listed", len(markers))
	}
	if markers == nil {
		markers = []domain.Marker{}
	}
	return markers, nil
}

// UpdateMarkerEnrichment sets weather and place fields on the marker with id.
func (s *Store) UpdateMarkerEnrichment(ctx context.Context, id string, e domain.Enrichment) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMarkerID, id)
	}

	w := e.Weather
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "temperature", Value: w.Temperature},
		{Key: "humidity", Value: w.Humidity},
		{Key: "wind_speed", Value: w.WindSpeed},
		{Key: "wind_direction", Value: w.WindDirection},
		{Key: "wind_gust", Value: w.WindGust},
		{Key: "rain", Value: w.Rain},
		{Key: "clouds", Value: w.Clouds},
		{Key: "country", Value: e.Place.Country},
		{Key: "state", Value: e.Place.State},
	}}}

	res, err := s.markers.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("update marker %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update marker %s: %w", id, mongo.ErrNoDocuments)
	}
	return nil
}

// AddUser stores a credential as-is. Usernames are not unique.
func (s *Store) AddUser(ctx context.Context, c domain.Credential) (string, error) {
	res, err := s.users.InsertOne(ctx, userDoc(c))
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return decodeInsertedID(res.InsertedID), nil
}

// FindUser returns the first credential stored under username.
func (s *Store) FindUser(ctx context.Context, username string) (domain.Credential, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Credential{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("find user: %w", err)
	}
	return domain.Credential(doc), nil
}

func decodeInsertedID(id any) string {
	if oid, ok := id.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// CheckReadiness pings the primary. It satisfies the shared readiness checker.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

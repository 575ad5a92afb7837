package mongo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMarkerDoc_BSONShape(t *testing.T) {
	pair := domain.Coordinate{Lon: -120.5, Lat: 38.25}.Pair()
	raw, err := bson.Marshal(markerDoc{Location: pair[:]})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "_id", "zero ObjectID is left for the server to assign")
	assert.NotContains(t, m, "temperature", "bare markers carry no enrichment fields")
	assert.Equal(t, bson.A{-120.5, 38.25}, m["location"])
}

func TestMarkerDoc_ToDomain(t *testing.T) {
	id := bson.NewObjectID()
	temp, country := 21.5, "Chile"
	m, err := markerDoc{ID: id, Location: []float64{-70.6, -33.4}, Temperature: &temp, Country: &country}.toDomain()
	require.NoError(t, err)

	assert.Equal(t, id.Hex(), m.ID)
	assert.Equal(t, domain.Coordinate{Lon: -70.6, Lat: -33.4}, m.Location)
	assert.InDelta(t, 21.5, *m.Temperature, 0)
	assert.Equal(t, "Chile", *m.Country)
	assert.Nil(t, m.Humidity)
}

func TestMarkerDoc_ToDomain_BadLocation(t *testing.T) {
	_, err := markerDoc{ID: bson.NewObjectID(), Location: []float64{1}}.toDomain()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 elements")
}

func TestDecodeInsertedID(t *testing.T) {
	oid := bson.NewObjectID()
	assert.Equal(t, oid.Hex(), decodeInsertedID(oid))
	assert.Equal(t, "42", decodeInsertedID(int32(42)))
}

// rawCursor replays marshaled documents the way *mongo.Cursor does.
type rawCursor struct {
	docs []bson.Raw
	pos  int
	err  error
}

func (c *rawCursor) Next(context.Context) bool {
	if c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

func (c *rawCursor) Decode(val any) error { return bson.Unmarshal(c.docs[c.pos-1], val) }

func (c *rawCursor) Err() error { return c.err }

func mustRaw(t *testing.T, doc bson.D) bson.Raw {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func TestDecodeMarkers_SkipsLegacyDocuments(t *testing.T) {
	good := bson.NewObjectID()
	cursor := &rawCursor{docs: []bson.Raw{
		mustRaw(t, bson.D{{Key: "_id", Value: bson.NewObjectID()}, {Key: "location", Value: bson.A{"-120.5", "38.1"}}, {Key: "wind_speed", Value: "5 m/s"}}),
		mustRaw(t, bson.D{{Key: "_id", Value: good}, {Key: "location", Value: bson.A{-120.5, 38.1}}}),
		mustRaw(t, bson.D{{Key: "_id", Value: bson.NewObjectID()}, {Key: "location", Value: bson.A{1.0}}}),
	}}

	markers, err := decodeMarkers(context.Background(), cursor, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, good.Hex(), markers[0].ID)
	assert.Equal(t, domain.Coordinate{Lon: -120.5, Lat: 38.1}, markers[0].Location)
}

func TestDecodeMarkers_Empty(t *testing.T) {
	markers, err := decodeMarkers(context.Background(), &rawCursor{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.NotNil(t, markers)
	assert.Empty(t, markers)
}

func TestDecodeMarkers_CursorError(t *testing.T) {
	cursor := &rawCursor{err: errors.New("connection reset")}
	_, err := decodeMarkers(context.Background(), cursor, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

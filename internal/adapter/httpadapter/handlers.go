package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type checkResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

// spreadRequest is the /get_red_spread body. Omitted weather values take
// the domain defaults.
type spreadRequest struct {
	Location      []float64 `json:"location" validate:"required,len=2"`
	Temperature   *float64  `json:"temperature"`
	Humidity      *float64  `json:"humidity"`
	WindSpeed     *float64  `json:"wind_speed"`
	WindDirection *float64  `json:"wind_direction"`
	WindGust      *float64  `json:"wind_gust"`
	Rain          *float64  `json:"rain"`
	Clouds        *float64  `json:"clouds"`
}

func (r spreadRequest) toDomain() (domain.SpreadRequest, error) {
	loc, err := domain.CoordinateFromPair(r.Location)
	if err != nil {
		return domain.SpreadRequest{}, err
	}
	w := domain.SpreadDefaults()
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{r.Temperature, &w.Temperature},
		{r.Humidity, &w.Humidity},
		{r.WindSpeed, &w.WindSpeed},
		{r.WindDirection, &w.WindDirection},
		{r.WindGust, &w.WindGust},
		{r.Rain, &w.Rain},
		{r.Clouds, &w.Clouds},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return domain.SpreadRequest{Location: loc, Weather: w}, nil
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Backend")
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var c domain.Credential
	if err := decodeJSON(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if _, err := s.deps.Users.AddUser(r.Context(), c); err != nil {
		s.logger.Error("add user failed", "error", err, "username", c.Username)
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User added successfully"})
}

func (s *Server) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	var c domain.Credential
	if err := decodeJSON(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	stored, err := s.deps.Users.FindUser(r.Context(), c.Username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, checkResponse{Exists: false, Message: "Username not found"})
	case err != nil:
		s.logger.Error("find user failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	case stored.Password != c.Password:
		writeJSON(w, http.StatusUnauthorized, checkResponse{Exists: false, Message: "Incorrect password"})
	default:
		writeJSON(w, http.StatusOK, checkResponse{Exists: true})
	}
}

func (s *Server) handleListWildfires(w http.ResponseWriter, r *http.Request) {
	markers, err := s.deps.Markers.ListMarkers(r.Context())
	if err != nil {
		s.logger.Error("list wildfires failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if markers == nil {
		markers = []domain.Marker{}
	}
	writeJSON(w, http.StatusOK, markers)
}

func (s *Server) handleSpread(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !hasFields(body) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No wildfire data provided"})
		return
	}

	var req spreadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: spreadDecodeError(err)})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid location data"})
		return
	}
	sr, err := req.toDomain()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid location data"})
		return
	}

	est, err := domain.EstimateSpread(r.Context(), s.deps.Generator, sr)
	if err != nil {
		s.metrics.SpreadEstimates.WithLabelValues("error").Inc()
		s.logger.Error("spread estimate failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.SpreadEstimates.WithLabelValues(string(est.Method)).Inc()
	s.logger.Debug("spread estimated",
		"lat", est.Latitude,
		"lon", est.Longitude,
		"radius", est.SpreadRadius,
		"method", est.Method,
	)
	writeJSON(w, http.StatusOK, est)
}

// spreadDecodeError names the weather field that failed to decode. Location
// and unattributed failures keep the generic location message.
func spreadDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" && !strings.HasPrefix(typeErr.Field, "location") {
		return fmt.Sprintf("Invalid value for %s: expected a number", typeErr.Field)
	}
	return "Invalid location data"
}

// hasFields reports whether body is a JSON object with at least one key.
func hasFields(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false
	}
	return len(obj) > 0
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

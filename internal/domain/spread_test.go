package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	reply  string
	err    error
	prompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.reply, m.err
}

func TestParseSpreadRadius(t *testing.T) {
	cases := []struct {
		name   string
		reply  string
		want   int
		method ParseMethod
	}{
		{name: "json object", reply: `{"spread_radius": 1500}`, want: 1500, method: ParseStructured},
		{name: "json float rounds", reply: `{"spread_radius": 1499.6}`, want: 1500, method: ParseStructured},
		{name: "json numeric string", reply: `{"spread_radius": "820"}`, want: 820, method: ParseStructured},
		{name: "json missing field", reply: `{"radius": 40}`, want: DefaultSpreadRadius, method: ParseStructured},
		{name: "fenced json", reply: "```json\n{\"spread_radius\": 2750}\n```", want: 2750, method: ParseStructured},
		{name: "bare number", reply: "  3100 ", want: 3100, method: ParseStructured},
		{name: "free text", reply: "the radius is 2300 meters", want: 2300, method: ParseRegex},
		{name: "null field falls to regex", reply: `{"spread_radius": null, "note": "about 600m"}`, want: 600, method: ParseRegex},
		{name: "nothing numeric", reply: "I cannot estimate that.", want: DefaultSpreadRadius, method: ParseDefault},
		{name: "empty", reply: "", want: DefaultSpreadRadius, method: ParseDefault},
		{name: "json huge exponent caps", reply: `{"spread_radius": 1e20}`, want: MaxSpreadRadius, method: ParseStructured},
		{name: "bare huge number caps", reply: "1e25", want: MaxSpreadRadius, method: ParseStructured},
		{name: "json just below cap", reply: `{"spread_radius": 2147483646.6}`, want: MaxSpreadRadius, method: ParseStructured},
		{name: "json negative falls to regex", reply: `{"spread_radius": -250}`, want: 250, method: ParseRegex},
		{name: "json NaN string falls through", reply: `{"spread_radius": "NaN"}`, want: DefaultSpreadRadius, method: ParseDefault},
		{name: "json Inf string falls through", reply: `{"spread_radius": "-Inf"}`, want: DefaultSpreadRadius, method: ParseDefault},
		{name: "long digit run caps", reply: "radius 99999999999999999999 m", want: MaxSpreadRadius, method: ParseRegex},
		{name: "int32 boundary digits", reply: "radius 2147483647 m", want: MaxSpreadRadius, method: ParseRegex},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, method := ParseSpreadRadius(tc.reply)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.method, method)
		})
	}
}

func TestBuildSpreadPrompt(t *testing.T) {
	w := SpreadDefaults()
	w.Temperature = 31.5
	w.WindSpeed = 7
	prompt := BuildSpreadPrompt(SpreadRequest{
		Location: Coordinate{Lon: -121.2, Lat: 39.8},
		Weather:  w,
	})

	assert.Contains(t, prompt, "[39.8, -121.2]")
	assert.Contains(t, prompt, "Temperature: 31.5°C")
	assert.Contains(t, prompt, "Humidity: 50%")
	assert.Contains(t, prompt, "Wind speed: 7 m/s")
	assert.Contains(t, prompt, "Cloud cover: 0%")
	assert.Contains(t, prompt, "'spread_radius'")
}

func TestEstimateSpread(t *testing.T) {
	req := SpreadRequest{Location: Coordinate{Lon: 10, Lat: 45}, Weather: SpreadDefaults()}

	t.Run("regex fallback", func(t *testing.T) {
		gen := &mockGenerator{reply: "the radius is 2300 meters"}
		est, err := EstimateSpread(context.Background(), gen, req)
		require.NoError(t, err)
		assert.Equal(t, 2300, est.SpreadRadius)
		assert.Equal(t, ParseRegex, est.Method)
		assert.Equal(t, 45.0, est.Latitude)
		assert.Equal(t, 10.0, est.Longitude)
		assert.Contains(t, gen.prompt, "[45, 10]")
	})

	t.Run("generator error", func(t *testing.T) {
		gen := &mockGenerator{err: errors.New("quota exceeded")}
		_, err := EstimateSpread(context.Background(), gen, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

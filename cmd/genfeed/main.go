// Command genfeed writes a FIRMS-shaped area CSV of synthetic fire
// detections, or serves it on the FIRMS area path so FIRMS_BASE_URL can
// point at a local mock feed.
//
// Usage:
//
//	go run ./cmd/genfeed -n 560 -out testdata/firms_560.csv
//	go run ./cmd/genfeed -n 2800 -serve :8089
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

var header = []string{
	"latitude", "longitude", "bright_ti4", "scan", "track", "acq_date", "acq_time",
	"satellite", "instrument", "confidence", "version", "bright_ti5", "frp", "daynight",
}

var confidences = []string{"l", "n", "h"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 560, "number of detections")
	seed := flag.Uint64("seed", 1, "random seed")
	date := flag.String("date", "2024-08-01", "acquisition date (YYYY-MM-DD)")
	out := flag.String("out", "-", "output file, - for stdout")
	addr := flag.String("serve", "", "serve the feed on this address instead of writing it")
	flag.Parse()

	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}
	if *n < 0 {
		return fmt.Errorf("-n must be non-negative")
	}

	var buf bytes.Buffer
	if err := writeFeed(&buf, *n, rand.New(rand.NewPCG(*seed, *seed)), clockwork.NewFakeClockAt(day)); err != nil {
		return err
	}

	if *addr != "" {
		return serve(*addr, buf.Bytes())
	}
	if *out == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d detections to %s\n", *n, *out)
	return nil
}

// writeFeed emits n rows. Acquisition times advance a few minutes per row
// from the clock's current time.
func writeFeed(w io.Writer, n int, r *rand.Rand, clock *clockwork.FakeClock) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for range n {
		clock.Advance(time.Duration(r.IntN(5)+1) * time.Minute)
		acq := clock.Now().UTC()
		lat := -55 + r.Float64()*125
		lon := -180 + r.Float64()*360
		row := []string{
			coord(lat),
			coord(lon),
			fixed(295+r.Float64()*72, 2),
			fixed(0.32+r.Float64()*0.5, 2),
			fixed(0.36+r.Float64()*0.4, 2),
			acq.Format(time.DateOnly),
			acq.Format("1504"),
			"N",
			"VIIRS",
			confidences[r.IntN(len(confidences))],
			"2.0NRT",
			fixed(270+r.Float64()*40, 2),
			fixed(r.Float64()*60, 2),
			dayNight(acq),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func serve(addr string, body []byte) error {
	r := chi.NewRouter()
	r.Get("/api/area/csv/{key}/{source}/{area}/{days}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	})
	log.Printf("serving mock FIRMS feed on %s", addr)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

func coord(v float64) string { return fixed(v, 5) }

func fixed(v float64, places int) string {
	p := math.Pow(10, float64(places))
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', places, 64)
}

func dayNight(t time.Time) string {
	if h := t.Hour(); h >= 6 && h < 18 {
		return "D"
	}
	return "N"
}

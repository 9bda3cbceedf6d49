// issdiag fetches the OEM feed once and prints the dataset shape and
// the current derived state. Useful for checking feed health and the
// coordinate math without running the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/isstrack/internal/locate"
	"github.com/star/isstrack/internal/oem"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	url := os.Getenv("ISSTRACK_FEED_URL")
	fetcher := oem.NewFetcher(url, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := fetcher.Fetch(ctx)
	if err != nil {
		fmt.Println("ERROR fetching OEM feed:", err)
		os.Exit(1)
	}

	ds, err := oem.Parse(raw, true)
	if err != nil {
		fmt.Println("ERROR parsing OEM feed:", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %d state vectors from %s\n", ds.Len(), fetcher.SourceURL())
	for k, v := range ds.Metadata {
		if v.IsTime() {
			fmt.Printf("  %s = %v\n", k, v.Time.Format(time.RFC3339))
		} else {
			fmt.Printf("  %s = %s\n", k, v.Text)
		}
	}

	now := time.Now().UTC()
	sv, err := ds.Nearest(now)
	if err != nil {
		fmt.Println("ERROR finding nearest epoch:", err)
		os.Exit(1)
	}

	resolver := locate.NewCorrectedResolver(nil, logger)
	loc := resolver.Resolve(ctx, sv)

	fmt.Printf("Nearest epoch: %v (now %v)\n", sv.Timestamp.Format(time.RFC3339), now.Format(time.RFC3339))
	fmt.Printf("  position: x=%.3f y=%.3f z=%.3f km\n", sv.X, sv.Y, sv.Z)
	fmt.Printf("  speed:    %.4f km/s\n", sv.Speed())
	fmt.Printf("  location: lat=%.4f lon=%.4f alt=%.1f km\n", loc.Lat, loc.Lon, loc.Altitude)
}

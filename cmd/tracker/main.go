// Package main provides the tracker CLI: the field tool operators use to
// list, filter, and update FM stations against the MakeItFast API.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/geoloc"
	"github.com/dearxcorex/MakeItFast/internal/tracker/stationapi"
)

// Version is set at compile time via ldflags.
var Version = "dev"

var (
	envFile  string
	apiURL   string
	position string
	verbose  bool

	rootCmd = &cobra.Command{
		Use:     "tracker",
		Short:   "FM station tracker for field inspection work",
		Version: Version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		_ = godotenv.Load(envFile)
	})

	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to read")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "station API base URL (default $MAKEITFAST_API_URL or "+stationapi.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&position, "position", "", `operator position as "lat,lon" (default $MAKEITFAST_POSITION)`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(directionsCmd)
	rootCmd.AddCommand(watchCmd)
}

// newLogger builds the CLI logger. Console output goes to stderr so tables
// and URLs on stdout stay pipeable.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newClient builds the station API client from flags and environment.
func newClient() *stationapi.Client {
	base := apiURL
	if base == "" {
		base = os.Getenv("MAKEITFAST_API_URL")
	}
	return stationapi.NewClient(stationapi.ClientConfig{
		BaseURL: base,
		TokenProvider: func() string {
			return os.Getenv("MAKEITFAST_TOKEN")
		},
	})
}

// currentPosition resolves the operator position from the --position flag
// or the environment. Returns nil when no position is configured; distance
// features degrade instead of failing.
func currentPosition(log zerolog.Logger) *geoloc.Position {
	raw := position
	if raw == "" {
		raw = os.Getenv("MAKEITFAST_POSITION")
	}
	if raw == "" {
		return nil
	}

	pos, err := geoloc.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring bad position, distances disabled")
		return nil
	}
	return &pos
}

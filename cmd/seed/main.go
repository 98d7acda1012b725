// Package main provides the MakeItFast seed tooling: bulk station import
// from a JSON export and operator provisioning. This is the only place in
// the system that deletes station rows; the serving path never does.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/auth"
	"github.com/dearxcorex/MakeItFast/internal/database"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

var (
	envFile  string
	seedFile string
	reset    bool
	operName string
	operKey  string

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "MakeItFast data seeding and provisioning",
	}

	stationsCmd = &cobra.Command{
		Use:   "stations",
		Short: "Bulk import stations from a JSON export",
		RunE:  runStations,
	}

	operatorCmd = &cobra.Command{
		Use:   "operator",
		Short: "Provision a field operator account",
		RunE:  runOperator,
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

	stationsCmd.Flags().StringVar(&seedFile, "file", "stations.json", "JSON array of station records")
	stationsCmd.Flags().BoolVar(&reset, "reset", false, "delete all existing stations first")

	operatorCmd.Flags().StringVar(&operName, "name", "", "operator display name")
	operatorCmd.Flags().StringVar(&operKey, "key", "", "operator key (generated when omitted)")
	_ = operatorCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(operatorCmd)
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "makeitfast-seed").
		Logger()
}

func runStations(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	ctx := cmd.Context()

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var wire []models.Station
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	stations := make([]*station.Station, 0, len(wire))
	for i := range wire {
		st, err := fromWire(&wire[i])
		if err != nil {
			return fmt.Errorf("record %d (id %d): %w", i, wire[i].ID, err)
		}
		stations = append(stations, st)
	}
	log.Info().Int("stations", len(stations)).Str("file", seedFile).Msg("seed file parsed")

	pool, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	repo := station.NewPostgresRepository(pool)

	if reset {
		if err := repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset stations: %w", err)
		}
		log.Warn().Msg("existing stations deleted")
	}

	inserted, err := repo.BulkInsert(ctx, stations)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	log.Info().Int64("inserted", inserted).Msg("seed complete")
	return nil
}

// fromWire converts a seed record through the same translation layer the
// boundaries use, so Thai-string and boolean status exports import cleanly.
func fromWire(w *models.Station) (*station.Station, error) {
	if w.ID <= 0 {
		return nil, fmt.Errorf("id must be a positive integer")
	}
	if w.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if w.Frequency <= 0 {
		return nil, fmt.Errorf("frequency must be positive")
	}
	if !finite(w.Latitude) || !finite(w.Longitude) {
		return nil, fmt.Errorf("coordinates must be finite numbers")
	}

	details := w.Details
	if !station.ValidDetail(details) {
		return nil, fmt.Errorf("unknown detail tag %q", details)
	}

	now := time.Now().UTC()
	st := &station.Station{
		ID:            w.ID,
		Name:          w.Name,
		Frequency:     w.Frequency,
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
		City:          w.City,
		Province:      w.Province,
		Genre:         w.Genre,
		Description:   w.Description,
		OnAir:         w.OnAir,
		Inspection:    station.ParseInspectionStatus(w.Inspection.String()),
		Details:       details,
		Unwanted:      w.Unwanted,
		SubmitRequest: station.ParseSubmitDecision(w.SubmitRequest.String()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if w.DateInspected != nil {
		d := w.DateInspected.Time()
		st.DateInspected = &d
	}
	if !w.CreatedAt.Time().IsZero() {
		st.CreatedAt = w.CreatedAt.Time()
	}
	if !w.UpdatedAt.Time().IsZero() {
		st.UpdatedAt = w.UpdatedAt.Time()
	}
	return st, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func runOperator(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	ctx := cmd.Context()

	key := operKey
	if key == "" {
		generated, err := auth.GenerateRefreshToken()
		if err != nil {
			return fmt.Errorf("generate operator key: %w", err)
		}
		key = generated
	}

	pool, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	service := auth.NewService(auth.ServiceConfig{
		OperatorRepo: auth.NewPostgresOperatorRepository(pool),
	})

	op, err := service.CreateOperator(ctx, operName, key)
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}

	log.Info().Str("operator_id", op.ID).Str("name", op.Name).Msg("operator created")

	// The key is shown exactly once; only its digest is stored.
	fmt.Fprintf(cmd.OutOrStdout(), "operator id: %s\noperator key: %s\n", op.ID, key)
	return nil
}

package station

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/events"
)

// Validation constants.
const (
	MaxDetailsLength = 500
	MaxRecentWindow  = 24 * time.Hour
)

// Service provides station operations.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
}

// ServiceConfig holds configuration for the station service.
type ServiceConfig struct {
	Repo Repository

	// Publisher receives an UPDATE envelope after every accepted write.
	// Optional; nil disables publishing.
	Publisher events.Publisher

	Logger zerolog.Logger
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}
}

// List returns the full station collection ordered by name.
func (s *Service) List(ctx context.Context) (*models.StationListResponse, error) {
	stations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.Station, 0, len(stations))
	for _, st := range stations {
		items = append(items, toAPIStation(st))
	}

	return &models.StationListResponse{
		Items: items,
		Count: len(items),
		AsOf:  models.Timestamp(time.Now().UTC()),
	}, nil
}

// Get returns a single station by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Station, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := toAPIStation(st)
	return &result, nil
}

// Patch applies a partial update and returns the canonical record as
// stored. Tolerant status fields are normalized here, so the repository
// only ever sees canonical values.
func (s *Service) Patch(ctx context.Context, id int64, input *models.StationPatchRequest) (*models.Station, error) {
	if input.Empty() {
		return nil, ErrEmptyPatch
	}

	if fieldErrors := s.validatePatch(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	patch := Patch{
		OnAir:    input.OnAir,
		Details:  input.Details,
		Unwanted: input.Unwanted,
	}
	if input.Inspection != nil {
		v := ParseInspectionStatus(input.Inspection.String())
		patch.Inspection = &v
	}
	if input.SubmitRequest != nil {
		v := ParseSubmitDecision(input.SubmitRequest.String())
		patch.SubmitRequest = &v
	}

	updated, err := s.repo.ApplyPatch(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publishUpdate(ctx, updated)

	result := toAPIStation(updated)
	return &result, nil
}

// RecentlyChanged returns stations whose canonical record changed within
// the given window, most recent first.
func (s *Service) RecentlyChanged(ctx context.Context, window time.Duration) (*models.StationListResponse, error) {
	if window <= 0 {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "since", Message: "must be greater than zero"},
		}}
	}
	if window > MaxRecentWindow {
		window = MaxRecentWindow
	}

	stations, err := s.repo.RecentlyChanged(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}

	items := make([]models.Station, 0, len(stations))
	for _, st := range stations {
		items = append(items, toAPIStation(st))
	}

	return &models.StationListResponse{
		Items: items,
		Count: len(items),
		AsOf:  models.Timestamp(time.Now().UTC()),
	}, nil
}

// publishUpdate emits an UPDATE envelope for the given record. The write
// is already durable at this point, so a publish failure is logged and
// swallowed; pollers pick the change up on their next pass.
func (s *Service) publishUpdate(ctx context.Context, st *Station) {
	if s.publisher == nil {
		return
	}

	wire := toAPIStation(st)
	data, err := json.Marshal(wire)
	if err != nil {
		s.logger.Error().Err(err).Int64("station_id", st.ID).Msg("failed to encode station event")
		return
	}

	env := events.NewStationUpdate(st.ID, st.Province, data)
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Warn().Err(err).Int64("station_id", st.ID).Msg("failed to publish station event")
	}
}

// validatePatch validates the patch input.
func (s *Service) validatePatch(input *models.StationPatchRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Details != nil {
		switch {
		case len(*input.Details) > MaxDetailsLength:
			errs = append(errs, models.FieldError{
				Field:   "details",
				Message: "must be at most 500 characters",
				Code:    models.CodeInvalidField,
			})
		case !ValidDetail(*input.Details):
			errs = append(errs, models.FieldError{
				Field:   "details",
				Message: "unknown detail tag",
				Code:    models.CodeInvalidField,
			})
		}
	}

	if input.SubmitRequest != nil && !KnownSubmitEncoding(input.SubmitRequest.String()) {
		errs = append(errs, models.FieldError{
			Field:   "submitRequest",
			Message: "unrecognized submit request value",
			Code:    models.CodeInvalidField,
		})
	}

	return errs
}

// toAPIStation converts a domain Station to an API Station.
func toAPIStation(st *Station) models.Station {
	out := models.Station{
		ID:            st.ID,
		Name:          st.Name,
		Frequency:     st.Frequency,
		Latitude:      st.Latitude,
		Longitude:     st.Longitude,
		City:          st.City,
		Province:      st.Province,
		Genre:         st.Genre,
		Description:   st.Description,
		OnAir:         st.OnAir,
		Inspection:    models.TriState(st.Inspection),
		Details:       st.Details,
		Unwanted:      st.Unwanted,
		SubmitRequest: models.TriState(st.SubmitRequest),
		CreatedAt:     models.Timestamp(st.CreatedAt),
		UpdatedAt:     models.Timestamp(st.UpdatedAt),
	}
	if st.DateInspected != nil {
		d := models.Date(*st.DateInspected)
		out.DateInspected = &d
	}
	return out
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

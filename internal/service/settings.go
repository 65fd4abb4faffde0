package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/librumreader/librum-core/internal/store"
	"github.com/librumreader/librum-core/internal/validation"
)

// Settings groups. Each group is a flat set of string values keyed by
// setting name; the reader UI owns the names and their defaults.
const (
	SettingsGeneral    = "general"
	SettingsAppearance = "appearance"
	SettingsShortcuts  = "shortcuts"
)

// SettingsGroups lists the accepted settings groups.
func SettingsGroups() []string {
	return []string{SettingsGeneral, SettingsAppearance, SettingsShortcuts}
}

var (
	groupRule  = "oneof=" + strings.Join(SettingsGroups(), " ")
	valuesRule = "min=1,dive,keys,notblank,max=64,endkeys,max=1024"
)

// SettingsService stores the reader's user settings.
type SettingsService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(st store.Store, validator *validation.Validator, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// GetSettings returns the stored values of a group.
func (s *SettingsService) GetSettings(ctx context.Context, group string) (map[string]string, error) {
	if err := s.validator.Var("group", group, groupRule); err != nil {
		return nil, err
	}
	return s.store.GetSettings(ctx, group)
}

// UpdateSettings merges values into a group and returns the whole group.
// Names must be non-blank and at most 64 characters, values at most 1024.
func (s *SettingsService) UpdateSettings(ctx context.Context, group string, values map[string]string) (map[string]string, error) {
	if err := s.validator.Var("group", group, groupRule); err != nil {
		return nil, err
	}
	if err := s.validator.Var("values", values, valuesRule); err != nil {
		return nil, err
	}

	if err := s.store.SaveSettings(ctx, group, values); err != nil {
		return nil, err
	}

	s.logger.Debug("settings updated", "group", group, "count", len(values))
	return s.store.GetSettings(ctx, group)
}

// ResetSettings drops every stored value of a group, returning it to the
// UI's defaults.
func (s *SettingsService) ResetSettings(ctx context.Context, group string) error {
	if err := s.validator.Var("group", group, groupRule); err != nil {
		return err
	}
	if err := s.store.DeleteSettings(ctx, group); err != nil {
		return err
	}

	s.logger.Info("settings reset", "group", group)
	return nil
}

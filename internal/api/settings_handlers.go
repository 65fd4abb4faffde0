package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/{group}",
		Summary:     "Get settings",
		Description: "Returns the stored values of a settings group",
		Tags:        []string{"Settings"},
	}, handle(s.handleGetSettings))

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/{group}",
		Summary:     "Update settings",
		Description: "Merges values into a settings group and returns the whole group",
		Tags:        []string{"Settings"},
	}, handle(s.handleUpdateSettings))

	huma.Register(s.api, huma.Operation{
		OperationID: "resetSettings",
		Method:      http.MethodDelete,
		Path:        "/api/v1/settings/{group}",
		Summary:     "Reset settings",
		Description: "Removes every stored value of a settings group",
		Tags:        []string{"Settings"},
	}, handle(s.handleResetSettings))
}

// === DTOs ===

// SettingsGroupInput identifies a settings group.
type SettingsGroupInput struct {
	Group string `path:"group" doc:"Settings group: general, appearance or shortcuts"`
}

// SettingsResponse is a settings group in API responses.
type SettingsResponse struct {
	Group  string            `json:"group" doc:"Settings group"`
	Values map[string]string `json:"values" doc:"Stored values keyed by setting name"`
}

// SettingsOutput wraps a settings group.
type SettingsOutput struct {
	Body SettingsResponse
}

// UpdateSettingsRequest is the request body for updating settings.
type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" doc:"Values to store; names not listed are kept"`
}

// UpdateSettingsInput wraps the update request.
type UpdateSettingsInput struct {
	Group string `path:"group" doc:"Settings group: general, appearance or shortcuts"`
	Body  UpdateSettingsRequest
}

// === Handlers ===

func (s *Server) handleGetSettings(ctx context.Context, input *SettingsGroupInput) (*SettingsOutput, error) {
	values, err := s.services.Settings.GetSettings(ctx, input.Group)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: SettingsResponse{Group: input.Group, Values: values}}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	values, err := s.services.Settings.UpdateSettings(ctx, input.Group, input.Body.Values)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: SettingsResponse{Group: input.Group, Values: values}}, nil
}

func (s *Server) handleResetSettings(ctx context.Context, input *SettingsGroupInput) (*MessageOutput, error) {
	if err := s.services.Settings.ResetSettings(ctx, input.Group); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Settings reset"}}, nil
}

package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/sonascope/internal/theme"
	"github.com/RMahshie/sonascope/pkg/models"
)

// ThemeService reads and persists the theme preference
type ThemeService interface {
	Active() theme.Theme
	Set(ctx context.Context, t theme.Theme) error
	Toggle(ctx context.Context) (theme.Theme, error)
}

// ThemeHandler handles the theme toggle
type ThemeHandler struct {
	svc ThemeService
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(svc ThemeService) *ThemeHandler {
	return &ThemeHandler{svc: svc}
}

func themeResponse(t theme.Theme) *models.ThemeResponse {
	return &models.ThemeResponse{Body: models.ThemeBody{Dark: t.IsDark(), Theme: t.String()}}
}

// GetTheme returns the active theme
func (h *ThemeHandler) GetTheme(ctx context.Context, _ *struct{}) (*models.ThemeResponse, error) {
	return themeResponse(h.svc.Active()), nil
}

// SetTheme persists the requested theme
func (h *ThemeHandler) SetTheme(ctx context.Context, req *models.SetThemeRequest) (*models.ThemeResponse, error) {
	t := theme.FromDark(req.Body.Dark)
	if err := h.svc.Set(ctx, t); err != nil {
		return nil, huma.Error500InternalServerError("Failed to save theme", err)
	}
	return themeResponse(t), nil
}

// ToggleTheme flips between light and dark
func (h *ThemeHandler) ToggleTheme(ctx context.Context, _ *struct{}) (*models.ThemeResponse, error) {
	t, err := h.svc.Toggle(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save theme", err)
	}
	return themeResponse(t), nil
}

// Copyright (c) 2026 Exvault. All rights reserved.

package setting

import (
	"context"
	"log/slog"
	"strings"

	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/internal/platform/constants"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// SetAPIKey stores the AI credential under its well-known key.
func (service *Service) SetAPIKey(context context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return apperr.ValidationError("API key must not be empty")
	}

	if err := service.repo.Upsert(context, constants.SettingGeminiAPIKey, apiKey); err != nil {
		return err
	}
	service.logger.Info("AI API key updated")
	return nil
}

// APIKey returns the stored AI credential, or "" when none is configured.
// It satisfies the key-provider contract of the extraction layer.
func (service *Service) APIKey(context context.Context) (string, error) {
	value, _, err := service.repo.Get(context, constants.SettingGeminiAPIKey)
	return value, err
}

// IsConfigured reports whether an AI credential is stored, without exposing it.
func (service *Service) IsConfigured(context context.Context) (bool, error) {
	_, found, err := service.repo.Get(context, constants.SettingGeminiAPIKey)
	return found, err
}

// ClearAPIKey removes the stored AI credential.
func (service *Service) ClearAPIKey(context context.Context) error {
	if err := service.repo.Delete(context, constants.SettingGeminiAPIKey); err != nil {
		return err
	}
	service.logger.Info("AI API key cleared")
	return nil
}

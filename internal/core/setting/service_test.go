// Copyright (c) 2026 Exvault. All rights reserved.

package setting

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/internal/platform/constants"
)

// memoryRepository is an in-memory Repository for service tests.
type memoryRepository struct {
	values map[string]string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{values: make(map[string]string)}
}

func (repository *memoryRepository) Upsert(_ context.Context, key, value string) error {
	repository.values[key] = value
	return nil
}

func (repository *memoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	value, found := repository.values[key]
	return value, found, nil
}

func (repository *memoryRepository) Delete(_ context.Context, key string) error {
	delete(repository.values, key)
	return nil
}

func TestService_APIKeyLifecycle(t *testing.T) {
	service := NewService(newMemoryRepository(), slog.Default())
	ctx := t.Context()

	// Nothing configured yet.
	configured, err := service.IsConfigured(ctx)
	require.NoError(t, err)
	assert.False(t, configured)

	key, err := service.APIKey(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	// Store and read back.
	require.NoError(t, service.SetAPIKey(ctx, "  AIza-test-key  "))

	configured, err = service.IsConfigured(ctx)
	require.NoError(t, err)
	assert.True(t, configured)

	key, err = service.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test-key", key, "stored key is trimmed")

	// Clear.
	require.NoError(t, service.ClearAPIKey(ctx))

	configured, err = service.IsConfigured(ctx)
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestService_SetAPIKey_Empty(t *testing.T) {
	repository := newMemoryRepository()
	service := NewService(repository, slog.Default())

	err := service.SetAPIKey(t.Context(), "   ")

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.NotContains(t, repository.values, constants.SettingGeminiAPIKey)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
)

// StaticSettings serves settings from a fixed map, typically the env-provided
// account code defaults.
type StaticSettings map[string]string

func (s StaticSettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(v), true, nil
}

// SettingsChain consults each reader in order and returns the first value found.
type SettingsChain []portsrepo.SettingsReader

func (c SettingsChain) GetSetting(ctx context.Context, key string) (string, bool, error) {
	for _, reader := range c {
		if reader == nil {
			continue
		}
		v, ok, err := reader.GetSetting(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

var (
	_ portsrepo.SettingsReader = StaticSettings(nil)
	_ portsrepo.SettingsReader = SettingsChain(nil)
)

// requireSetting reads a mandatory setting. Absence is a configuration error and is
// never defaulted.
func requireSetting(ctx context.Context, settings portsrepo.SettingsReader, key string) (string, error) {
	if settings == nil {
		return "", fmt.Errorf("%w: no settings source configured, cannot read %s", apperrors.ErrConfiguration, key)
	}
	v, ok, err := settings.GetSetting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: setting %s is not configured", apperrors.ErrConfiguration, key)
	}
	return v, nil
}

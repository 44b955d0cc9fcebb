package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type settingRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	Delete(ctx context.Context, key string) (bool, error)
}

// SettingService manages institute-wide key/value settings.
type SettingService struct {
	repo      settingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingService creates a new setting service.
func NewSettingService(repo settingRepository, validate *validator.Validate, logger *zap.Logger) *SettingService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, validator: validate, logger: logger}
}

// List returns every setting ordered by key.
func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list settings")
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	return settings, nil
}

// Get returns one setting.
func (s *SettingService) Get(ctx context.Context, key string) (*models.Setting, error) {
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, lookupError(err, "setting")
	}
	return setting, nil
}

// Upsert creates or replaces a setting.
func (s *SettingService) Upsert(ctx context.Context, key string, req dto.UpsertSettingRequest) (*models.Setting, error) {
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	setting := &models.Setting{Key: key, Value: req.Value, Description: req.Description}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Internal(err, "failed to save setting")
	}
	s.logger.Info("setting saved", zap.String("key", key))
	return setting, nil
}

// Delete removes a setting.
func (s *SettingService) Delete(ctx context.Context, key string) error {
	key, err := s.normalizeKey(key)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, key)
	if err != nil {
		return appErrors.Internal(err, "failed to delete setting")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	return nil
}

func (s *SettingService) normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if err := s.validator.Var(key, "required,max=100"); err != nil {
		return "", fieldError("key", "key is required and at most 100 characters")
	}
	return key, nil
}

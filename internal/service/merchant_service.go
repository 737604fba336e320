package service

import (
	"context"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// merchantService implements ports.MerchantManagementService.
type merchantService struct {
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	auditSvc     ports.AuditService
	log          zerolog.Logger
}

// NewMerchantService creates a new merchant management service.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	encSvc ports.EncryptionService,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) ports.MerchantManagementService {
	return &merchantService{
		merchantRepo: merchantRepo,
		encSvc:       encSvc,
		auditSvc:     auditSvc,
		log:          log,
	}
}

// GetProfile returns the merchant's own account view.
func (s *merchantService) GetProfile(ctx context.Context, merchantID uuid.UUID) (*ports.MerchantProfile, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	return &ports.MerchantProfile{
		ID:           merchant.ID,
		Username:     merchant.Username,
		MerchantName: merchant.MerchantName,
		Tier:         merchant.Tier,
		WebhookURL:   merchant.WebhookURL,
		Status:       merchant.Status,
		CreatedAt:    merchant.CreatedAt.Format(time.RFC3339),
	}, nil
}

// UpdateWebhookURL sets or clears the merchant's settlement webhook URL.
func (s *merchantService) UpdateWebhookURL(ctx context.Context, merchantID uuid.UUID, webhookURL *string) error {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return apperror.ErrNotFound("Merchant")
	}

	merchant.WebhookURL = webhookURL
	if err := s.merchantRepo.Update(ctx, merchant); err != nil {
		return apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &merchantID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionUpdateWebhook,
		ResourceType: "merchant",
		ResourceID:   merchantID.String(),
		CreatedAt:    time.Now(),
	})

	s.log.Info().Str("merchant_id", merchantID.String()).Msg("webhook URL updated")
	return nil
}

// RotateKeys generates a fresh access/secret key pair for the merchant.
// The old keys stop working immediately; the new secret is shown once.
func (s *merchantService) RotateKeys(ctx context.Context, merchantID uuid.UUID) (*ports.RotateKeysResponse, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	accessKey, err := generateRandomHex(32)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate access key: %w", err))
	}
	secretKey, err := generateRandomHex(32)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate secret key: %w", err))
	}

	secretKeyEnc, err := s.encSvc.Encrypt(secretKey)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	merchant.AccessKey = accessKey
	merchant.SecretKeyEnc = secretKeyEnc
	if err := s.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &merchantID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionRotateKeys,
		ResourceType: "merchant",
		ResourceID:   merchantID.String(),
		CreatedAt:    time.Now(),
	})

	s.log.Info().Str("merchant_id", merchantID.String()).Msg("API keys rotated")

	return &ports.RotateKeysResponse{
		AccessKey: accessKey,
		SecretKey: secretKey,
	}, nil
}

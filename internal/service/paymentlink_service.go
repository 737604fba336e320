package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentLinkServiceImpl implements ports.PaymentLinkService.
type PaymentLinkServiceImpl struct {
	linkRepo      ports.PaymentLinkRepository
	merchantRepo  ports.MerchantRepository
	hashSvc       ports.HashService
	auditSvc      ports.AuditService
	baseURL       string
	defaultExpiry time.Duration
	maxExpiry     time.Duration
	log           zerolog.Logger
}

// NewPaymentLinkService creates a new PaymentLinkServiceImpl.
func NewPaymentLinkService(
	linkRepo ports.PaymentLinkRepository,
	merchantRepo ports.MerchantRepository,
	hashSvc ports.HashService,
	auditSvc ports.AuditService,
	baseURL string,
	defaultExpiry, maxExpiry time.Duration,
	log zerolog.Logger,
) *PaymentLinkServiceImpl {
	return &PaymentLinkServiceImpl{
		linkRepo:      linkRepo,
		merchantRepo:  merchantRepo,
		hashSvc:       hashSvc,
		auditSvc:      auditSvc,
		baseURL:       baseURL,
		defaultExpiry: defaultExpiry,
		maxExpiry:     maxExpiry,
		log:           log,
	}
}

// Create generates a payment link with a unique shareable code.
func (s *PaymentLinkServiceImpl) Create(ctx context.Context, req ports.CreateLinkRequest) (*domain.PaymentLink, string, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, "", apperror.ErrInvalidAmount()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, "", apperror.ErrNotFound("merchant")
	}
	if !merchant.IsActive() {
		return nil, "", apperror.ErrAccountSuspended()
	}

	now := time.Now().UTC()
	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.defaultExpiry)
	}
	if expiresAt.Before(now) {
		return nil, "", apperror.Validation("Expiry must be in the future")
	}
	if expiresAt.After(now.Add(s.maxExpiry)) {
		return nil, "", apperror.Validation("Expiry exceeds the maximum allowed")
	}

	var pinHash *string
	if req.Pin != nil && *req.Pin != "" {
		h, err := s.hashSvc.Hash(*req.Pin)
		if err != nil {
			return nil, "", apperror.InternalError(fmt.Errorf("hash link pin: %w", err))
		}
		pinHash = &h
	}

	code, err := generateLinkCode()
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("generate code: %w", err))
	}

	link := &domain.PaymentLink{
		ID:         uuid.New(),
		Code:       code,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Status:     domain.PaymentLinkStatusActive,
		ExpiresAt:  expiresAt,
		PinHash:    pinHash,
		Metadata:   req.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("create link: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &req.MerchantID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionCreateLink,
		ResourceType: "payment_link",
		ResourceID:   link.ID.String(),
		CreatedAt:    now,
	})

	s.log.Info().
		Str("link_code", code).
		Str("merchant_id", req.MerchantID.String()).
		Msg("payment link created")

	return link, s.baseURL + code, nil
}

// GetPublic returns the payer-facing view of a link, applying lazy expiry.
func (s *PaymentLinkServiceImpl) GetPublic(ctx context.Context, code string) (*domain.PaymentLink, error) {
	link, err := s.getWithLazyExpiry(ctx, code)
	if err != nil {
		return nil, err
	}

	// Hide settlement internals from the public view
	link.PayerWalletID = nil
	link.DebitTxID = nil
	link.CreditTxID = nil
	return link, nil
}

// GetForMerchant returns a link to its owning merchant, applying lazy expiry.
func (s *PaymentLinkServiceImpl) GetForMerchant(ctx context.Context, merchantID uuid.UUID, code string) (*domain.PaymentLink, error) {
	link, err := s.getWithLazyExpiry(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.MerchantID != merchantID {
		return nil, apperror.ErrForbidden()
	}
	return link, nil
}

// List returns a merchant's links, newest first.
func (s *PaymentLinkServiceImpl) List(ctx context.Context, merchantID uuid.UUID, page, pageSize int) ([]domain.PaymentLink, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	links, err := s.linkRepo.ListByMerchant(ctx, merchantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list links: %w", err))
	}

	now := time.Now().UTC()
	for i := range links {
		if links[i].Status == domain.PaymentLinkStatusActive && links[i].IsExpiredAt(now) {
			links[i].Status = domain.PaymentLinkStatusExpired
		}
	}
	return links, nil
}

// getWithLazyExpiry fetches a link and flips it to EXPIRED on read when the
// deadline lapsed while it was still ACTIVE.
func (s *PaymentLinkServiceImpl) getWithLazyExpiry(ctx context.Context, code string) (*domain.PaymentLink, error) {
	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("payment link")
	}

	if link.Status == domain.PaymentLinkStatusActive && link.IsExpiredAt(time.Now().UTC()) {
		if _, err := s.linkRepo.Expire(ctx, link.ID); err != nil {
			s.log.Warn().Err(err).Str("link_code", code).Msg("failed to persist lazy expiry")
		}
		link.Status = domain.PaymentLinkStatusExpired
	}
	return link, nil
}

// generateLinkCode produces a 12-hex-char code with a pl_ prefix.
func generateLinkCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "pl_" + hex.EncodeToString(buf), nil
}

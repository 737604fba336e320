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
	"github.com/shopspring/decimal"
)

// AuthServiceImpl implements ports.AuthService for both actor kinds.
type AuthServiceImpl struct {
	merchantRepo ports.MerchantRepository
	customerRepo ports.CustomerRepository
	walletRepo   ports.WalletRepository
	hashSvc      ports.HashService
	encSvc       ports.EncryptionService
	tokenSvc     ports.TokenService
	auditSvc     ports.AuditService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	merchantRepo ports.MerchantRepository,
	customerRepo ports.CustomerRepository,
	walletRepo ports.WalletRepository,
	hashSvc ports.HashService,
	encSvc ports.EncryptionService,
	tokenSvc ports.TokenService,
	auditSvc ports.AuditService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		merchantRepo: merchantRepo,
		customerRepo: customerRepo,
		walletRepo:   walletRepo,
		hashSvc:      hashSvc,
		encSvc:       encSvc,
		tokenSvc:     tokenSvc,
		auditSvc:     auditSvc,
	}
}

// RegisterMerchant creates a merchant account, its API key pair, and its
// wallet. Returns the access_key and secret_key (plaintext shown only once).
func (s *AuthServiceImpl) RegisterMerchant(ctx context.Context, req ports.RegisterMerchantRequest) (*ports.RegisterMerchantResponse, error) {
	existing, err := s.merchantRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	// Tier must be resolvable before any row is written
	if _, _, err := domain.CommissionFor(req.Tier, decimal.Zero); err != nil {
		return nil, apperror.ErrUnknownTier(string(req.Tier))
	}

	accessKey, err := generateRandomHex(32) // 64 hex chars
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate access key: %w", err))
	}
	secretKey, err := generateRandomHex(32)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate secret key: %w", err))
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}
	pinHash, err := s.hashSvc.Hash(req.WalletPin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash wallet pin: %w", err))
	}

	// Encrypt secret key with AES-256 before storing
	secretKeyEnc, err := s.encSvc.Encrypt(secretKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encrypt secret key: %w", err))
	}

	tier := req.Tier
	if tier == "" {
		tier = domain.TierFree
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		MerchantName: req.MerchantName,
		Tier:         tier,
		AccessKey:    accessKey,
		SecretKeyEnc: secretKeyEnc,
		WebhookURL:   req.WebhookURL,
		Status:       domain.MerchantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerType: domain.OwnerTypeMerchant,
		OwnerID:   merchant.ID,
		Currency:  req.Currency,
		Active:    true,
		PinHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &merchant.ID,
		ActorType:    ports.ActorTypeMerchant,
		Action:       domain.AuditActionRegister,
		ResourceType: "merchant",
		ResourceID:   merchant.ID.String(),
		CreatedAt:    now,
	})

	return &ports.RegisterMerchantResponse{
		MerchantID: merchant.ID,
		WalletID:   wallet.ID,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
	}, nil
}

// RegisterCustomer creates a customer profile and its wallet.
func (s *AuthServiceImpl) RegisterCustomer(ctx context.Context, req ports.RegisterCustomerRequest) (*ports.RegisterCustomerResponse, error) {
	existing, err := s.customerRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}
	pinHash, err := s.hashSvc.Hash(req.WalletPin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash wallet pin: %w", err))
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Status:       domain.CustomerStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create customer: %w", err))
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerType: domain.OwnerTypeCustomer,
		OwnerID:   customer.ID,
		Currency:  req.Currency,
		Active:    true,
		PinHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &customer.ID,
		ActorType:    ports.ActorTypeCustomer,
		Action:       domain.AuditActionRegister,
		ResourceType: "customer",
		ResourceID:   customer.ID.String(),
		CreatedAt:    now,
	})

	return &ports.RegisterCustomerResponse{
		CustomerID: customer.ID,
		WalletID:   wallet.ID,
	}, nil
}

// LoginMerchant validates merchant credentials and returns a JWT.
func (s *AuthServiceImpl) LoginMerchant(ctx context.Context, username, password string) (string, time.Time, error) {
	merchant, err := s.merchantRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, merchant.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !merchant.IsActive() {
		return "", time.Time{}, apperror.ErrAccountSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(merchant.ID, ports.ActorTypeMerchant, merchant.AccessKey)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

// LoginCustomer validates customer credentials and returns a JWT.
func (s *AuthServiceImpl) LoginCustomer(ctx context.Context, username, password string) (string, time.Time, error) {
	customer, err := s.customerRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find customer: %w", err))
	}
	if customer == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, customer.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !customer.IsActive() {
		return "", time.Time{}, apperror.ErrAccountSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(customer.ID, ports.ActorTypeCustomer, "")
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	hashSvc    ports.HashService
	pinLockout ports.PinLockout
	auditSvc   ports.AuditService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	hashSvc ports.HashService,
	pinLockout ports.PinLockout,
	auditSvc ports.AuditService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		hashSvc:    hashSvc,
		pinLockout: pinLockout,
		auditSvc:   auditSvc,
		transactor: transactor,
		log:        log,
	}
}

// GetBalance returns the wallet balance and currency for an owner.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (decimal.Decimal, string, error) {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return decimal.Zero, "", apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return decimal.Zero, "", apperror.ErrNotFound("wallet")
	}
	return wallet.Balance, wallet.Currency, nil
}

// Deposit credits the owner's wallet and records a single credit leg.
func (s *WalletServiceImpl) Deposit(ctx context.Context, req ports.WalletMovementRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockOwnerWallet(ctx, dbTx, req.OwnerType, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !wallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	if err := s.walletRepo.Credit(ctx, dbTx, wallet.ID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:              uuid.New(),
		ReferenceID:     movementReference("DEP", wallet.ID, now),
		WalletID:        wallet.ID,
		PairID:          uuid.New(),
		Direction:       domain.DirectionCredit,
		Amount:          req.Amount,
		Currency:        wallet.Currency,
		TransactionType: domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusCompleted,
		ClientIP:        req.ClientIP,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit(ctx, req.OwnerType, req.OwnerID, domain.AuditActionDeposit, wallet.ID, req.ClientIP, now)
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("deposit processed")

	return txn, nil
}

// Withdraw debits the owner's wallet and records a single debit leg,
// enforcing balance and spending limits.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, req ports.WalletMovementRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockOwnerWallet(ctx, dbTx, req.OwnerType, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if !wallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	now := time.Now().UTC()
	if !wallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := checkSpendingLimits(ctx, dbTx, s.txRepo, wallet, req.Amount, now); err != nil {
		return nil, err
	}

	debited, err := s.walletRepo.Debit(ctx, dbTx, wallet.ID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}
	if !debited {
		return nil, apperror.ErrInsufficientBalance()
	}

	txn := &domain.Transaction{
		ID:              uuid.New(),
		ReferenceID:     movementReference("WDR", wallet.ID, now),
		WalletID:        wallet.ID,
		PairID:          uuid.New(),
		Direction:       domain.DirectionDebit,
		Amount:          req.Amount,
		Currency:        wallet.Currency,
		TransactionType: domain.TransactionTypeWithdrawal,
		Status:          domain.TransactionStatusCompleted,
		ClientIP:        req.ClientIP,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit(ctx, req.OwnerType, req.OwnerID, domain.AuditActionWithdrawal, wallet.ID, req.ClientIP, now)
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("withdrawal processed")

	return txn, nil
}

// Transfer moves funds from the sender's wallet to an arbitrary recipient
// wallet, with PIN verification and the same dual-lock, dual-leg machinery
// as link settlement. The caller-supplied reference id scopes idempotency.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey := domain.BuildTransferIdempotencyKey(req.SenderID, req.ReferenceID)

	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	idempLog, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransaction(idempLog.ResponseJSON)
	}

	senderWallet, err := s.walletRepo.GetByOwner(ctx, domain.OwnerTypeCustomer, req.SenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find sender wallet: %w", err))
	}
	if senderWallet == nil {
		return nil, apperror.ErrNotFound("sender wallet")
	}
	if senderWallet.ID == req.RecipientWalletID {
		return nil, apperror.ErrSelfTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	senderWallet, recipientWallet, err := lockWalletPair(ctx, dbTx, s.walletRepo, senderWallet.ID, req.RecipientWalletID)
	if err != nil {
		return nil, err
	}

	if !senderWallet.Active || !recipientWallet.Active {
		return nil, apperror.ErrWalletInactive()
	}
	if senderWallet.Currency != recipientWallet.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}

	if err := checkPin(ctx, s.pinLockout, s.hashSvc, s.log, senderWallet.ID.String(), req.Pin, senderWallet.PinHash); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !senderWallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := checkSpendingLimits(ctx, dbTx, s.txRepo, senderWallet, req.Amount, now); err != nil {
		return nil, err
	}

	debited, err := s.walletRepo.Debit(ctx, dbTx, senderWallet.ID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if !debited {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.Credit(ctx, dbTx, recipientWallet.ID, req.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit recipient: %w", err))
	}

	pairID := uuid.New()
	debitTx := &domain.Transaction{
		ID:                   uuid.New(),
		ReferenceID:          req.ReferenceID,
		WalletID:             senderWallet.ID,
		CounterpartyWalletID: &recipientWallet.ID,
		PairID:               pairID,
		Direction:            domain.DirectionDebit,
		Amount:               req.Amount,
		Currency:             senderWallet.Currency,
		TransactionType:      domain.TransactionTypeTransfer,
		Status:               domain.TransactionStatusCompleted,
		ClientIP:             req.ClientIP,
		CreatedAt:            now,
		ProcessedAt:          &now,
	}
	creditTx := &domain.Transaction{
		ID:                   uuid.New(),
		ReferenceID:          req.ReferenceID,
		WalletID:             recipientWallet.ID,
		CounterpartyWalletID: &senderWallet.ID,
		PairID:               pairID,
		Direction:            domain.DirectionCredit,
		Amount:               req.Amount,
		Currency:             senderWallet.Currency,
		TransactionType:      domain.TransactionTypeTransfer,
		Status:               domain.TransactionStatusCompleted,
		ClientIP:             req.ClientIP,
		CreatedAt:            now,
		ProcessedAt:          &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, debitTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create debit leg: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, creditTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create credit leg: %w", err))
	}

	respJSON, err := json.Marshal(debitTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}
	idempEntry := &domain.IdempotencyLog{
		Key:           idempKey,
		TransactionID: debitTx.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     now,
	}
	if err := s.idempRepo.Create(ctx, dbTx, idempEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
	}

	s.audit(ctx, domain.OwnerTypeCustomer, req.SenderID, domain.AuditActionTransfer, senderWallet.ID, req.ClientIP, now)
	s.log.Info().
		Str("tx_id", debitTx.ID.String()).
		Str("sender_wallet", senderWallet.ID.String()).
		Str("recipient_wallet", recipientWallet.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer processed")

	return debitTx, nil
}

// VerifyPin checks the owner's wallet PIN, counting failures toward lockout.
func (s *WalletServiceImpl) VerifyPin(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, pin string) error {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	return checkPin(ctx, s.pinLockout, s.hashSvc, s.log, wallet.ID.String(), pin, wallet.PinHash)
}

// SetActive toggles the owner's wallet active flag.
func (s *WalletServiceImpl) SetActive(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, active bool) error {
	wallet, err := s.walletRepo.GetByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	if err := s.walletRepo.SetActive(ctx, wallet.ID, active); err != nil {
		return apperror.InternalError(fmt.Errorf("set wallet active: %w", err))
	}

	s.audit(ctx, ownerType, ownerID, domain.AuditActionWalletStatus, wallet.ID, "", time.Now().UTC())
	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Bool("active", active).
		Msg("wallet status changed")
	return nil
}

// lockOwnerWallet locks the single wallet owned by the given profile.
func (s *WalletServiceImpl) lockOwnerWallet(ctx context.Context, dbTx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerForUpdate(ctx, dbTx, ownerType, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

func (s *WalletServiceImpl) audit(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID, action domain.AuditAction, walletID uuid.UUID, clientIP string, now time.Time) {
	actorType := ports.ActorTypeCustomer
	if ownerType == domain.OwnerTypeMerchant {
		actorType = ports.ActorTypeMerchant
	}
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &ownerID,
		ActorType:    actorType,
		Action:       action,
		ResourceType: "wallet",
		ResourceID:   walletID.String(),
		IPAddress:    clientIP,
		CreatedAt:    now,
	})
}

// movementReference builds a reference id for single-wallet movements.
func movementReference(prefix string, walletID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", prefix, walletID.String()[:8], now.UnixMilli())
}

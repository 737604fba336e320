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
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const idempotencyTTL = 24 * time.Hour

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	linkRepo   ports.PaymentLinkRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	hashSvc    ports.HashService
	pinLockout ports.PinLockout
	webhookSvc ports.WebhookService
	auditSvc   ports.AuditService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	linkRepo ports.PaymentLinkRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	hashSvc ports.HashService,
	pinLockout ports.PinLockout,
	webhookSvc ports.WebhookService,
	auditSvc ports.AuditService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		linkRepo:   linkRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		hashSvc:    hashSvc,
		pinLockout: pinLockout,
		webhookSvc: webhookSvc,
		auditSvc:   auditSvc,
		transactor: transactor,
		log:        log,
	}
}

// Settle moves funds from the payer's wallet to the link's merchant wallet
// and completes the link, all inside one DB transaction with pessimistic
// locking. Returns the payer-side (debit) leg.
func (s *SettlementServiceImpl) Settle(ctx context.Context, req ports.SettleRequest) (*domain.Transaction, error) {
	idempKey := domain.BuildSettleIdempotencyKey(req.Code, req.PayerID)

	// Layer 1: Redis idempotency check
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	// Layer 2: DB idempotency check
	idempLog, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransaction(idempLog.ResponseJSON)
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get link
	link, err := s.linkRepo.GetByCodeForUpdate(ctx, dbTx, req.Code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("payment link")
	}

	now := time.Now().UTC()

	// Lazy expiry: flip and persist before rejecting
	if link.Status == domain.PaymentLinkStatusActive && link.IsExpiredAt(now) {
		if _, err := s.linkRepo.MarkExpired(ctx, dbTx, link.ID); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("mark link expired: %w", err))
		}
		if err := dbTx.Commit(ctx); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("commit expiry: %w", err))
		}
		return nil, apperror.ErrLinkExpired()
	}

	switch link.Status {
	case domain.PaymentLinkStatusCompleted:
		return nil, apperror.ErrLinkCompleted()
	case domain.PaymentLinkStatusExpired:
		return nil, apperror.ErrLinkExpired()
	}

	// Resolve amount
	amount, err := resolveSettleAmount(link, req.Amount)
	if err != nil {
		return nil, err
	}

	// Locate both wallets, then lock in wallet-id order to avoid deadlock
	payerWallet, err := s.walletRepo.GetByOwner(ctx, domain.OwnerTypeCustomer, req.PayerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find payer wallet: %w", err))
	}
	if payerWallet == nil {
		return nil, apperror.ErrNotFound("payer wallet")
	}
	merchantWallet, err := s.walletRepo.GetByOwner(ctx, domain.OwnerTypeMerchant, link.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant wallet: %w", err))
	}
	if merchantWallet == nil {
		return nil, apperror.ErrNotFound("merchant wallet")
	}

	payerWallet, merchantWallet, err = lockWalletPair(ctx, dbTx, s.walletRepo, payerWallet.ID, merchantWallet.ID)
	if err != nil {
		return nil, err
	}

	if !payerWallet.Active || !merchantWallet.Active {
		return nil, apperror.ErrWalletInactive()
	}
	if payerWallet.Currency != link.Currency || merchantWallet.Currency != link.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}

	// PIN check. The link's own PIN wins; otherwise the merchant wallet PIN
	// printed on the link applies.
	pinHash := merchantWallet.PinHash
	if link.PinHash != nil {
		pinHash = *link.PinHash
	}
	if err := checkPin(ctx, s.pinLockout, s.hashSvc, s.log, payerWallet.ID.String(), req.Pin, pinHash); err != nil {
		return nil, err
	}

	// Balance & spending limits
	if !payerWallet.CanDebit(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := checkSpendingLimits(ctx, dbTx, s.txRepo, payerWallet, amount, now); err != nil {
		return nil, err
	}

	// Debit payer (conditional), credit merchant
	debited, err := s.walletRepo.Debit(ctx, dbTx, payerWallet.ID, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit payer: %w", err))
	}
	if !debited {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.Credit(ctx, dbTx, merchantWallet.ID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit merchant: %w", err))
	}

	// Paired ledger legs
	pairID := uuid.New()
	debitTx := &domain.Transaction{
		ID:                   uuid.New(),
		ReferenceID:          req.Code,
		WalletID:             payerWallet.ID,
		CounterpartyWalletID: &merchantWallet.ID,
		PairID:               pairID,
		Direction:            domain.DirectionDebit,
		Amount:               amount,
		Currency:             link.Currency,
		TransactionType:      domain.TransactionTypePayment,
		Status:               domain.TransactionStatusCompleted,
		PaymentLinkID:        &link.ID,
		ClientIP:             req.ClientIP,
		CreatedAt:            now,
		ProcessedAt:          &now,
	}
	creditTx := &domain.Transaction{
		ID:                   uuid.New(),
		ReferenceID:          req.Code,
		WalletID:             merchantWallet.ID,
		CounterpartyWalletID: &payerWallet.ID,
		PairID:               pairID,
		Direction:            domain.DirectionCredit,
		Amount:               amount,
		Currency:             link.Currency,
		TransactionType:      domain.TransactionTypePayment,
		Status:               domain.TransactionStatusCompleted,
		PaymentLinkID:        &link.ID,
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

	// Complete the link; zero rows means a concurrent settlement won
	completed, err := s.linkRepo.Complete(ctx, dbTx, link.ID, domain.LinkCompletion{
		CompletedAt:   now,
		PayerWalletID: payerWallet.ID,
		DebitTxID:     debitTx.ID,
		CreditTxID:    creditTx.ID,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("complete link: %w", err))
	}
	if !completed {
		return nil, apperror.ErrLinkCompleted()
	}

	// Persist: idempotency log
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

	// Commit
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process: cache in Redis (best-effort)
	if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
	}

	// Post-process: merchant webhook (best-effort, async)
	link.Status = domain.PaymentLinkStatusCompleted
	link.CompletedAt = &now
	if err := s.webhookSvc.EnqueueSettlement(ctx, link, creditTx); err != nil {
		s.log.Warn().Err(err).Str("link_code", link.Code).Msg("failed to enqueue settlement webhook")
	}

	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &req.PayerID,
		ActorType:    ports.ActorTypeCustomer,
		Action:       domain.AuditActionSettleLink,
		ResourceType: "payment_link",
		ResourceID:   link.ID.String(),
		IPAddress:    req.ClientIP,
		CreatedAt:    now,
	})

	s.log.Info().
		Str("tx_id", debitTx.ID.String()).
		Str("link_code", link.Code).
		Str("amount", amount.String()).
		Str("currency", link.Currency).
		Msg("payment link settled")

	return debitTx, nil
}

// resolveSettleAmount picks the effective amount for a settlement.
func resolveSettleAmount(link *domain.PaymentLink, requested *decimal.Decimal) (decimal.Decimal, error) {
	if link.IsVariableAmount() {
		if requested == nil {
			return decimal.Zero, apperror.ErrLinkAmountRequired()
		}
		if !requested.IsPositive() {
			return decimal.Zero, apperror.ErrInvalidAmount()
		}
		return *requested, nil
	}
	return *link.Amount, nil
}

// unmarshalCachedTransaction deserializes a cached transaction.
func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"

	"github.com/rs/zerolog"
)

// webhookRetryIntervals defines the delivery retry schedule.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Webhook event types.
const (
	EventLinkSettled = "LINK_SETTLED"
)

// WebhookPayload is the JSON structure sent to the merchant webhook_url.
type WebhookPayload struct {
	EventType string             `json:"event_type"`
	Data      WebhookPayloadData `json:"data"`
	Signature string             `json:"signature"`
}

// WebhookPayloadData holds the settlement details in the webhook.
type WebhookPayloadData struct {
	LinkCode      string `json:"link_code"`
	TransactionID string `json:"transaction_id"` // merchant-side credit leg
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	CompletedAt   int64  `json:"completed_at"`
	Timestamp     int64  `json:"timestamp"`
}

// webhookService implements ports.WebhookService.
type webhookService struct {
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	sigSvc       ports.SignatureService
	httpClient   HTTPClient
	log          zerolog.Logger
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(
	merchantRepo ports.MerchantRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.WebhookService {
	return &webhookService{
		merchantRepo: merchantRepo,
		encSvc:       encSvc,
		sigSvc:       sigSvc,
		httpClient:   httpClient,
		log:          log,
	}
}

// EnqueueSettlement notifies the merchant of a settled link asynchronously
// with retries. The credit transaction is the merchant-side ledger leg.
func (s *webhookService) EnqueueSettlement(ctx context.Context, link *domain.PaymentLink, creditTx *domain.Transaction) error {
	merchant, err := s.merchantRepo.GetByID(ctx, link.MerchantID)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_id", link.MerchantID.String()).Msg("webhook: failed to fetch merchant")
		return err
	}
	if merchant == nil || merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		s.log.Debug().Str("merchant_id", link.MerchantID.String()).Msg("webhook: no webhook URL configured, skipping")
		return nil
	}

	completedAt := time.Now().Unix()
	if link.CompletedAt != nil {
		completedAt = link.CompletedAt.Unix()
	}

	data := WebhookPayloadData{
		LinkCode:      link.Code,
		TransactionID: creditTx.ID.String(),
		Status:        string(link.Status),
		Amount:        creditTx.Amount.String(),
		Currency:      creditTx.Currency,
		CompletedAt:   completedAt,
		Timestamp:     time.Now().Unix(),
	}

	// Sign the payload data with the merchant's secret key.
	secretKey, err := s.encSvc.Decrypt(merchant.SecretKeyEnc)
	if err != nil {
		s.log.Error().Err(err).Msg("webhook: failed to decrypt merchant secret key")
		return err
	}

	dataBytes, _ := json.Marshal(data)
	signature := s.sigSvc.Sign(secretKey, string(dataBytes))

	payload := WebhookPayload{
		EventType: EventLinkSettled,
		Data:      data,
		Signature: signature,
	}

	go s.deliverWithRetries(*merchant.WebhookURL, payload, link.Code)

	return nil
}

// deliverWithRetries attempts to deliver the webhook, sleeping between
// attempts per the retry schedule.
func (s *webhookService) deliverWithRetries(url string, payload WebhookPayload, code string) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("link_code", code).Msg("webhook: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(webhookRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(webhookRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payloadBytes))
		if err != nil {
			s.log.Error().Err(err).Str("link_code", code).Int("attempt", attempt+1).Msg("webhook: failed to create request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Str("link_code", code).Int("attempt", attempt+1).Msg("webhook: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("link_code", code).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: delivered successfully")
			return
		}

		s.log.Warn().Str("link_code", code).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: non-2xx response, retrying")
	}

	s.log.Error().Str("link_code", code).Msg("webhook: all retry attempts exhausted")
}

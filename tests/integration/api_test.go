package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	httpHandler "bitdash-payments/internal/adapter/http/handler"
	redisStorage "bitdash-payments/internal/adapter/storage/redis"
	"bitdash-payments/internal/core/ports"
	"bitdash-payments/internal/service"
	"bitdash-payments/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack on top of in-memory Redis
// (miniredis) and in-memory repos. This exercises the real HTTP layer,
// middleware, handlers, services, and Redis stores end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	nonceStore := redisStorage.NewNonceStore(rdb)
	pinLockout := redisStorage.NewPinLockout(rdb, 5, 15*time.Minute)

	// Core services with real implementations
	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	merchantRepo := newInMemoryMerchantRepo()
	customerRepo := newInMemoryCustomerRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	linkRepo := newInMemoryPaymentLinkRepo()
	orderRepo := newInMemoryOrderRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	auditRepo := newInMemoryAuditRepo()
	transactor := newInMemoryTransactor()

	// Business services
	log := logger.New("error", false)
	auditSvc := service.NewAuditService(auditRepo, log)
	authSvc := service.NewAuthService(merchantRepo, customerRepo, walletRepo, hashSvc, encSvc, tokenSvc, auditSvc)
	webhookSvc := service.NewWebhookService(merchantRepo, encSvc, sigSvc, &http.Client{Timeout: 2 * time.Second}, log)
	walletSvc := service.NewWalletService(walletRepo, txRepo, idempotencyRepo, idempotencyCache, hashSvc, pinLockout, auditSvc, transactor, log)
	settlementSvc := service.NewSettlementService(linkRepo, walletRepo, txRepo, idempotencyRepo, idempotencyCache, hashSvc, pinLockout, webhookSvc, auditSvc, transactor, log)
	linkSvc := service.NewPaymentLinkService(linkRepo, merchantRepo, hashSvc, auditSvc, "https://pay.test", 24*time.Hour, 30*24*time.Hour, log)
	orderSvc := service.NewOrderService(orderRepo, merchantRepo, auditSvc, transactor, log)
	reportingSvc := service.NewReportingService(walletRepo, txRepo, log)
	merchantSvc := service.NewMerchantService(merchantRepo, encSvc, auditSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:       authSvc,
		WalletSvc:     walletSvc,
		SettlementSvc: settlementSvc,
		LinkSvc:       linkSvc,
		OrderSvc:      orderSvc,
		ReportingSvc:  reportingSvc,
		MerchantSvc:   merchantSvc,
		AuditSvc:      auditSvc,
		MerchantRepo:  merchantRepo,
		EncSvc:        encSvc,
		SigSvc:        sigSvc,
		NonceStore:    nonceStore,
		TokenSvc:      tokenSvc,
		HealthCheckers: []ports.HealthChecker{
			redisStorage.NewHealthCheck(rdb),
		},
		Logger: log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_MerchantRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Register
	regBody, _ := json.Marshal(map[string]string{
		"username":      "merchant1",
		"password":      "StrongPass123!",
		"merchant_name": "Test Merchant",
		"tier":          "BASIC",
		"wallet_pin":    "4912",
		"currency":      "LYD",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/merchants/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["merchant_id"])
	assert.NotEmpty(t, data["wallet_id"])
	assert.NotEmpty(t, data["access_key"])
	assert.NotEmpty(t, data["secret_key"])

	// Login
	loginBody, _ := json.Marshal(map[string]string{
		"username": "merchant1",
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/merchants/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&loginResp))
	loginData := loginResp["data"].(map[string]interface{})
	assert.NotEmpty(t, loginData["token"])
}

func TestIntegration_CustomerRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"username":   "customer1",
		"password":   "StrongPass123!",
		"full_name":  "Ali Customer",
		"wallet_pin": "4912",
		"currency":   "LYD",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/customers/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["customer_id"])
	assert.NotEmpty(t, data["wallet_id"])

	token := loginToken(t, app, "/api/v1/auth/customers/login", "customer1", "StrongPass123!")
	assert.NotEmpty(t, token)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	loginBody, _ := json.Marshal(map[string]string{
		"username": "nobody",
		"password": "wrongpassword",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/merchants/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"username":      "merchant1",
		"password":      "StrongPass123!",
		"merchant_name": "Test",
		"wallet_pin":    "4912",
		"currency":      "LYD",
	})

	resp, err := http.Post(app.server.URL+"/api/v1/auth/merchants/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Try again with same username
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/merchants/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestIntegration_CustomerWalletFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerCustomer(t, app, "walletuser", "4912")
	token := loginToken(t, app, "/api/v1/auth/customers/login", "walletuser", "StrongPass123!")

	// Initial balance is zero
	balData := getBalance(t, app, token)
	assert.Equal(t, "0.00", balData["balance"])
	assert.Equal(t, "LYD", balData["currency"])

	// Deposit
	depResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", token, map[string]string{"amount": "500.00"})
	defer depResp.Body.Close()
	assert.Equal(t, http.StatusCreated, depResp.StatusCode)

	var depBody map[string]interface{}
	require.NoError(t, json.NewDecoder(depResp.Body).Decode(&depBody))
	depData := depBody["data"].(map[string]interface{})
	assert.Equal(t, "DEPOSIT", depData["transaction_type"])
	assert.Equal(t, "CREDIT", depData["direction"])
	assert.Equal(t, "500.00", depData["amount"])

	// Withdraw
	wdResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/withdraw", token, map[string]string{"amount": "120.00"})
	defer wdResp.Body.Close()
	assert.Equal(t, http.StatusCreated, wdResp.StatusCode)

	// Balance reflects both movements
	balData = getBalance(t, app, token)
	assert.Equal(t, "380.00", balData["balance"])
}

func TestIntegration_TransferBetweenCustomers(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerCustomer(t, app, "sender", "4912")
	recipientWalletID := registerCustomer(t, app, "recipient", "7001")

	senderToken := loginToken(t, app, "/api/v1/auth/customers/login", "sender", "StrongPass123!")
	recipientToken := loginToken(t, app, "/api/v1/auth/customers/login", "recipient", "StrongPass123!")

	// Fund the sender
	depResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", senderToken, map[string]string{"amount": "1000.00"})
	depResp.Body.Close()
	require.Equal(t, http.StatusCreated, depResp.StatusCode)

	// Transfer with the sender's wallet PIN
	xferResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/transfer", senderToken, map[string]string{
		"recipient_wallet_id": recipientWalletID,
		"amount":              "250.00",
		"pin":                 "4912",
		"reference_id":        "ref-transfer-001",
	})
	defer xferResp.Body.Close()
	require.Equal(t, http.StatusCreated, xferResp.StatusCode)

	var xferBody map[string]interface{}
	require.NoError(t, json.NewDecoder(xferResp.Body).Decode(&xferBody))
	xferData := xferBody["data"].(map[string]interface{})
	assert.Equal(t, "TRANSFER", xferData["transaction_type"])
	assert.Equal(t, "DEBIT", xferData["direction"])
	assert.Equal(t, "250.00", xferData["amount"])

	// Both balances moved
	assert.Equal(t, "750.00", getBalance(t, app, senderToken)["balance"])
	assert.Equal(t, "250.00", getBalance(t, app, recipientToken)["balance"])

	// Replay with the same reference_id is idempotent: same leg, no double debit
	replayResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/transfer", senderToken, map[string]string{
		"recipient_wallet_id": recipientWalletID,
		"amount":              "250.00",
		"pin":                 "4912",
		"reference_id":        "ref-transfer-001",
	})
	defer replayResp.Body.Close()
	require.Equal(t, http.StatusCreated, replayResp.StatusCode)

	var replayBody map[string]interface{}
	require.NoError(t, json.NewDecoder(replayResp.Body).Decode(&replayBody))
	replayData := replayBody["data"].(map[string]interface{})
	assert.Equal(t, xferData["id"], replayData["id"])
	assert.Equal(t, "750.00", getBalance(t, app, senderToken)["balance"])
}

func TestIntegration_TransferWrongPin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerCustomer(t, app, "pinuser", "4912")
	recipientWalletID := registerCustomer(t, app, "pinpeer", "7001")
	token := loginToken(t, app, "/api/v1/auth/customers/login", "pinuser", "StrongPass123!")

	depResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", token, map[string]string{"amount": "100.00"})
	depResp.Body.Close()

	xferResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/transfer", token, map[string]string{
		"recipient_wallet_id": recipientWalletID,
		"amount":              "50.00",
		"pin":                 "0000",
		"reference_id":        "ref-badpin-001",
	})
	defer xferResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, xferResp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(xferResp.Body).Decode(&body))
	assert.Equal(t, "WAL_007", body["error_code"])

	// Nothing moved
	assert.Equal(t, "100.00", getBalance(t, app, token)["balance"])
}

func TestIntegration_HMAC_LinkLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	accessKey, secretKey := registerMerchant(t, app, "linkmerchant", "9001")

	// Create a fixed-amount link with its own PIN over the HMAC server API
	linkBody := `{"amount":"150.00","currency":"LYD","pin":"4912"}`
	resp := hmacPost(t, app, "/api/v1/links", linkBody, accessKey, secretKey)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create link response: %s", string(raw))

	var linkResp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &linkResp))
	linkData := linkResp["data"].(map[string]interface{})
	code := linkData["code"].(string)
	assert.NotEmpty(t, code)
	assert.Equal(t, "150.00", linkData["amount"])
	assert.Equal(t, "ACTIVE", linkData["status"])
	assert.Equal(t, "https://pay.test/pay/"+code, linkData["url"])

	// Public view hides settlement internals
	pubResp, err := http.Get(app.server.URL + "/api/v1/pay/" + code)
	require.NoError(t, err)
	defer pubResp.Body.Close()
	assert.Equal(t, http.StatusOK, pubResp.StatusCode)

	var pubBody map[string]interface{}
	require.NoError(t, json.NewDecoder(pubResp.Body).Decode(&pubBody))
	pubData := pubBody["data"].(map[string]interface{})
	assert.Equal(t, true, pubData["has_pin"])
	assert.NotContains(t, pubData, "merchant_id")
	assert.NotContains(t, pubData, "payer_wallet_id")

	// Fund a customer and settle
	registerCustomer(t, app, "payer1", "1111")
	payerToken := loginToken(t, app, "/api/v1/auth/customers/login", "payer1", "StrongPass123!")
	depResp := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", payerToken, map[string]string{"amount": "500.00"})
	depResp.Body.Close()
	require.Equal(t, http.StatusCreated, depResp.StatusCode)

	settleResp := doJSON(t, app, http.MethodPost, "/api/v1/pay/"+code+"/settle", payerToken, map[string]string{"pin": "4912"})
	defer settleResp.Body.Close()

	settleRaw, _ := io.ReadAll(settleResp.Body)
	require.Equal(t, http.StatusCreated, settleResp.StatusCode, "settle response: %s", string(settleRaw))

	var settleBody map[string]interface{}
	require.NoError(t, json.Unmarshal(settleRaw, &settleBody))
	settleData := settleBody["data"].(map[string]interface{})
	assert.Equal(t, "PAYMENT", settleData["transaction_type"])
	assert.Equal(t, "DEBIT", settleData["direction"])
	assert.Equal(t, "150.00", settleData["amount"])

	// Payer balance reduced
	assert.Equal(t, "350.00", getBalance(t, app, payerToken)["balance"])

	// Settle replay by the same payer returns the original leg
	replayResp := doJSON(t, app, http.MethodPost, "/api/v1/pay/"+code+"/settle", payerToken, map[string]string{"pin": "4912"})
	defer replayResp.Body.Close()
	require.Equal(t, http.StatusCreated, replayResp.StatusCode)

	var replayBody map[string]interface{}
	require.NoError(t, json.NewDecoder(replayResp.Body).Decode(&replayBody))
	replayData := replayBody["data"].(map[string]interface{})
	assert.Equal(t, settleData["id"], replayData["id"])
	assert.Equal(t, "350.00", getBalance(t, app, payerToken)["balance"])

	// A different payer hits the completed link
	registerCustomer(t, app, "payer2", "2222")
	payer2Token := loginToken(t, app, "/api/v1/auth/customers/login", "payer2", "StrongPass123!")
	dep2 := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", payer2Token, map[string]string{"amount": "500.00"})
	dep2.Body.Close()

	otherResp := doJSON(t, app, http.MethodPost, "/api/v1/pay/"+code+"/settle", payer2Token, map[string]string{"pin": "4912"})
	defer otherResp.Body.Close()
	assert.Equal(t, http.StatusConflict, otherResp.StatusCode)

	// Merchant dashboard reflects the settlement
	merchantToken := loginToken(t, app, "/api/v1/auth/merchants/login", "linkmerchant", "StrongPass123!")
	statsReq, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/dashboard/stats", nil)
	statsReq.Header.Set("Authorization", "Bearer "+merchantToken)
	statsResp, err := http.DefaultClient.Do(statsReq)
	require.NoError(t, err)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var statsBody map[string]interface{}
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&statsBody))
	statsData := statsBody["data"].(map[string]interface{})
	assert.Equal(t, "150.00", statsData["total_credited"])
	assert.Equal(t, float64(1), statsData["settled_links"])
}

func TestIntegration_VariableAmountLink(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// The merchant wallet PIN guards links created without their own PIN.
	accessKey, secretKey := registerMerchant(t, app, "varmerchant", "5511")

	resp := hmacPost(t, app, "/api/v1/links", `{"currency":"LYD"}`, accessKey, secretKey)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create link response: %s", string(raw))

	var linkResp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &linkResp))
	linkData := linkResp["data"].(map[string]interface{})
	code := linkData["code"].(string)
	assert.NotContains(t, linkData, "amount")

	registerCustomer(t, app, "varpayer", "3333")
	payerToken := loginToken(t, app, "/api/v1/auth/customers/login", "varpayer", "StrongPass123!")
	dep := doJSON(t, app, http.MethodPost, "/api/v1/wallets/deposit", payerToken, map[string]string{"amount": "200.00"})
	dep.Body.Close()

	// Missing amount on a variable link is rejected
	noAmount := doJSON(t, app, http.MethodPost, "/api/v1/pay/"+code+"/settle", payerToken, map[string]string{"pin": "5511"})
	defer noAmount.Body.Close()
	assert.Equal(t, http.StatusBadRequest, noAmount.StatusCode)

	// Payer supplies the amount
	settleResp := doJSON(t, app, http.MethodPost, "/api/v1/pay/"+code+"/settle", payerToken, map[string]string{
		"pin":    "5511",
		"amount": "75.50",
	})
	defer settleResp.Body.Close()
	settleRaw, _ := io.ReadAll(settleResp.Body)
	require.Equal(t, http.StatusCreated, settleResp.StatusCode, "settle response: %s", string(settleRaw))

	var settleBody map[string]interface{}
	require.NoError(t, json.Unmarshal(settleRaw, &settleBody))
	settleData := settleBody["data"].(map[string]interface{})
	assert.Equal(t, "75.50", settleData["amount"])

	assert.Equal(t, "124.50", getBalance(t, app, payerToken)["balance"])
}

func TestIntegration_Orders(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerMerchant(t, app, "ordermerchant", "4912")
	token := loginToken(t, app, "/api/v1/auth/merchants/login", "ordermerchant", "StrongPass123!")

	createResp := doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"payment_method": "WALLET",
		"lines": []map[string]interface{}{
			{"name": "Keyboard", "quantity": 2, "unit_price": "120.50"},
			{"name": "Mouse", "quantity": 1, "unit_price": "510.00"},
		},
	})
	defer createResp.Body.Close()
	raw, _ := io.ReadAll(createResp.Body)
	require.Equal(t, http.StatusCreated, createResp.StatusCode, "create order response: %s", string(raw))

	var createBody map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &createBody))
	orderData := createBody["data"].(map[string]interface{})
	orderID := orderData["id"].(string)
	assert.Equal(t, "751.00", orderData["total"])
	assert.Equal(t, float64(1), orderData["line_version"])
	assert.Len(t, orderData["lines"], 2)

	// Replace the lines; snapshot version bumps
	replaceResp := doJSON(t, app, http.MethodPut, "/api/v1/orders/"+orderID+"/lines", token, map[string]interface{}{
		"lines": []map[string]interface{}{
			{"name": "Keyboard", "quantity": 1, "unit_price": "120.50"},
		},
	})
	defer replaceResp.Body.Close()
	require.Equal(t, http.StatusOK, replaceResp.StatusCode)

	var replaceBody map[string]interface{}
	require.NoError(t, json.NewDecoder(replaceResp.Body).Decode(&replaceBody))
	replacedData := replaceBody["data"].(map[string]interface{})
	assert.Equal(t, float64(2), replacedData["line_version"])
	assert.Equal(t, "120.50", replacedData["total"])
	assert.Len(t, replacedData["lines"], 1)

	// Get returns the current snapshot
	getReq, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/orders/"+orderID, nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getResp, err := http.DefaultClient.Do(getReq)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var getBody map[string]interface{}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&getBody))
	gotData := getBody["data"].(map[string]interface{})
	assert.Equal(t, float64(2), gotData["line_version"])
	assert.Len(t, gotData["lines"], 1)
}

func TestIntegration_MerchantSelfService(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	accessKey, _ := registerMerchant(t, app, "selfmerchant", "4912")
	token := loginToken(t, app, "/api/v1/auth/merchants/login", "selfmerchant", "StrongPass123!")

	// Profile
	profReq, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/merchants/me", nil)
	profReq.Header.Set("Authorization", "Bearer "+token)
	profResp, err := http.DefaultClient.Do(profReq)
	require.NoError(t, err)
	defer profResp.Body.Close()
	require.Equal(t, http.StatusOK, profResp.StatusCode)

	var profBody map[string]interface{}
	require.NoError(t, json.NewDecoder(profResp.Body).Decode(&profBody))
	profData := profBody["data"].(map[string]interface{})
	assert.Equal(t, "selfmerchant", profData["username"])

	// Webhook URL
	whResp := doJSON(t, app, http.MethodPut, "/api/v1/merchants/me/webhook", token, map[string]string{
		"webhook_url": "https://shop.example.ly/hooks/settlement",
	})
	whResp.Body.Close()
	assert.Equal(t, http.StatusOK, whResp.StatusCode)

	// Key rotation invalidates the old access key
	rotResp := doJSON(t, app, http.MethodPost, "/api/v1/merchants/me/rotate-keys", token, nil)
	defer rotResp.Body.Close()
	require.Equal(t, http.StatusOK, rotResp.StatusCode)

	var rotBody map[string]interface{}
	require.NoError(t, json.NewDecoder(rotResp.Body).Decode(&rotBody))
	rotData := rotBody["data"].(map[string]interface{})
	assert.NotEmpty(t, rotData["access_key"])
	assert.NotEqual(t, accessKey, rotData["access_key"])
}

func TestIntegration_HMAC_MissingHeaders(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Post(app.server.URL+"/api/v1/links", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_JWT_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/wallets/balance", nil)
	// No Authorization header
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_JWT_ActorTypeGate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerCustomer(t, app, "gatecustomer", "4912")
	customerToken := loginToken(t, app, "/api/v1/auth/customers/login", "gatecustomer", "StrongPass123!")

	// A customer token cannot reach merchant dashboard routes
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// --- Helpers ---

func registerMerchant(t *testing.T, app *testApp, username, pin string) (accessKey, secretKey string) {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{
		"username":      username,
		"password":      "StrongPass123!",
		"merchant_name": "Test Merchant",
		"tier":          "BASIC",
		"wallet_pin":    pin,
		"currency":      "LYD",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/merchants/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	return data["access_key"].(string), data["secret_key"].(string)
}

func registerCustomer(t *testing.T, app *testApp, username, pin string) (walletID string) {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{
		"username":   username,
		"password":   "StrongPass123!",
		"full_name":  "Test Customer",
		"wallet_pin": pin,
		"currency":   "LYD",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/customers/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	return data["wallet_id"].(string)
}

func loginToken(t *testing.T, app *testApp, path, username, password string) string {
	t.Helper()
	loginBody, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := http.Post(app.server.URL+path, "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	data := loginResp["data"].(map[string]interface{})
	return data["token"].(string)
}

func getBalance(t *testing.T, app *testApp, token string) map[string]interface{} {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/wallets/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["data"].(map[string]interface{})
}

func doJSON(t *testing.T, app *testApp, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func hmacPost(t *testing.T, app *testApp, path, body, accessKey, secretKey string) *http.Response {
	t.Helper()
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := fmt.Sprintf("nonce-%d", time.Now().UnixNano())

	canonical := fmt.Sprintf("POST|%s|%s|%s|%s", path, timestamp, nonce, body)
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(canonical))
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, app.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Access-Key", accessKey)
	req.Header.Set("X-Signature", signature)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Nonce", nonce)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

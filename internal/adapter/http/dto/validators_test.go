package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitdash-payments/pkg/apperror"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterMerchantRequest{
		Username:     "  alice  ",
		Password:     "  pass1234  ",
		MerchantName: " My Shop ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "My Shop", req.MerchantName)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	meta := "invoice <script>alert('x')</script> 42"
	req := CreateLinkRequest{
		Currency: "LYD",
		Metadata: &meta,
	}
	SanitizeStruct(&req)

	assert.Contains(t, *req.Metadata, "&lt;script&gt;")
	assert.NotContains(t, *req.Metadata, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	url := "  https://example.com/webhook  "
	req := RegisterMerchantRequest{
		Username:     "bob",
		Password:     "password123",
		MerchantName: "Bob Shop",
		WebhookURL:   &url,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "https://example.com/webhook", *req.WebhookURL)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RegisterMerchantRequest{
		Username:     "carol",
		Password:     "password123",
		MerchantName: "Carol Shop",
		WebhookURL:   nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.WebhookURL)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

func TestSanitizeStruct_TransferRequest(t *testing.T) {
	req := TransferRequest{
		RecipientWalletID: "  6f1a0d0e-3a9b-4a5d-9d2f-8b7c6e5d4c3b  ",
		Amount:            " 150.00 ",
		Pin:               "4912",
		ReferenceID:       "  ref-001  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "6f1a0d0e-3a9b-4a5d-9d2f-8b7c6e5d4c3b", req.RecipientWalletID)
	assert.Equal(t, "150.00", req.Amount)
	assert.Equal(t, "ref-001", req.ReferenceID)
}

// --- Custom validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ref-001",
		"REF_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",     // space
		"ref<001>",    // angle brackets
		"ref;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"ref\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

// --- ParseAmount tests ---

func TestParseAmount_Valid(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{"150.00", "150"},
		{"0.01", "0.01"},
		{" 42 ", "42"},
		{"999999.99", "999999.99"},
		{"10.5", "10.5"},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.raw)
		require.NoError(t, err, "raw: %s", tc.raw)
		assert.True(t, d.Equal(decimal.RequireFromString(tc.expected)), "raw: %s got %s", tc.raw, d)
	}
}

func TestParseAmount_NotANumber(t *testing.T) {
	for _, raw := range []string{"abc", "", "12.3.4", "1e"} {
		_, err := ParseAmount(raw)
		require.Error(t, err, "raw: %s", raw)
		appErr, ok := err.(*apperror.AppError)
		require.True(t, ok)
		assert.Equal(t, "WAL_002", appErr.Code)
	}
}

func TestParseAmount_NonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-1", "-0.01", "0.00"} {
		_, err := ParseAmount(raw)
		require.Error(t, err, "raw: %s", raw)
		appErr, ok := err.(*apperror.AppError)
		require.True(t, ok)
		assert.Equal(t, "WAL_002", appErr.Code)
	}
}

func TestParseAmount_TooManyDecimalPlaces(t *testing.T) {
	_, err := ParseAmount("10.999")
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "WAL_002", appErr.Code)
	assert.Contains(t, appErr.Message, "two decimal places")
}

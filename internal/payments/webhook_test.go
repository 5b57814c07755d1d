package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

func stripeSignatureHeader(secret string, at time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeVerifyWebhook_ValidSignature(t *testing.T) {
	provider := NewStripeProvider("sk_test", "whsec_test")
	signedAt := time.Unix(1756000000, 0)
	provider.now = func() time.Time { return signedAt.Add(time.Minute) }

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	event, err := provider.VerifyWebhook(context.Background(), body, map[string]string{
		"Stripe-Signature": stripeSignatureHeader("whsec_test", signedAt, body),
	})
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.EventID)
	assert.Equal(t, "payment_intent.succeeded", event.EventType)
}

func TestStripeVerifyWebhook_WrongSecret(t *testing.T) {
	provider := NewStripeProvider("sk_test", "whsec_test")
	signedAt := time.Unix(1756000000, 0)
	provider.now = func() time.Time { return signedAt }

	body := []byte(`{"id":"evt_1"}`)
	_, err := provider.VerifyWebhook(context.Background(), body, map[string]string{
		"Stripe-Signature": stripeSignatureHeader("whsec_other", signedAt, body),
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestStripeVerifyWebhook_StaleSignature(t *testing.T) {
	provider := NewStripeProvider("sk_test", "whsec_test")
	signedAt := time.Unix(1756000000, 0)
	provider.now = func() time.Time { return signedAt.Add(10 * time.Minute) }

	body := []byte(`{"id":"evt_1"}`)
	_, err := provider.VerifyWebhook(context.Background(), body, map[string]string{
		"Stripe-Signature": stripeSignatureHeader("whsec_test", signedAt, body),
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestStripeVerifyWebhook_MissingHeader(t *testing.T) {
	provider := NewStripeProvider("sk_test", "whsec_test")

	_, err := provider.VerifyWebhook(context.Background(), []byte(`{}`), nil)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestParseStripeSignature(t *testing.T) {
	timestamp, candidates := parseStripeSignature("t=1756000000,v1=abc,v1=def,v0=ignored")
	assert.Equal(t, int64(1756000000), timestamp)
	assert.Equal(t, []string{"abc", "def"}, candidates)

	timestamp, candidates = parseStripeSignature("garbage")
	assert.Zero(t, timestamp)
	assert.Empty(t, candidates)
}

func TestFlutterwaveVerifyWebhook_HashCheck(t *testing.T) {
	provider := NewFlutterwaveProvider("sk_test", "hash-secret")
	body := []byte(`{"id":407347576,"event":"charge.completed","data":{"tx_ref":"booking-abc","status":"successful"}}`)

	event, err := provider.VerifyWebhook(context.Background(), body, map[string]string{
		"verif-hash": "hash-secret",
	})
	assert.NoError(t, err)
	assert.Equal(t, "407347576", event.EventID)
	assert.Equal(t, "charge.completed", event.EventType)

	_, err = provider.VerifyWebhook(context.Background(), body, map[string]string{
		"verif-hash": "wrong",
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestFlutterwaveVerifyWebhook_MalformedBody(t *testing.T) {
	provider := NewFlutterwaveProvider("sk_test", "hash-secret")

	_, err := provider.VerifyWebhook(context.Background(), []byte("not json"), map[string]string{
		"verif-hash": "hash-secret",
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestFirstString(t *testing.T) {
	assert.Equal(t, "407347576", firstString(float64(407347576)))
	assert.Equal(t, "fallback", firstString(nil, "", "fallback"))
	assert.Equal(t, "", firstString(nil))
}

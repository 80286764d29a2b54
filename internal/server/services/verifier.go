package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret, the
// signature the gateway attaches to a completed payment.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the expected one exactly.
func Verify(orderID, paymentID, signature, secret string) bool {
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

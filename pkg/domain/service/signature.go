package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature reports whether signature is the authentication code the
// gateway would have produced for the given order/payment pair. The code is
// HMAC-SHA256 over "<order id>|<payment id>" keyed with the shared secret,
// hex-encoded. The comparison is constant time; neither the secret nor the
// expected code is ever logged.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

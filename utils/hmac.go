package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// BuildStringToSign is the canonical form signed on queue messages:
// ROUTING_KEY\nTIMESTAMP\nSHA256(body).
func BuildStringToSign(routingKey string, timestamp int64, body []byte) string {
	return fmt.Sprintf("%s\n%d\n%s", routingKey, timestamp, HashBodySHA256(body))
}

func ComputeHMACSHA256(secretKey, message string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// SecureCompare compares in constant time. Use it for signatures.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func HashBodySHA256(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// SignMessage returns the hex signature of body for routingKey at timestamp.
func SignMessage(secretKey, routingKey string, timestamp int64, body []byte) string {
	return ComputeHMACSHA256(secretKey, BuildStringToSign(routingKey, timestamp, body))
}

func VerifyMessage(secretKey, routingKey string, timestamp int64, body []byte, signature string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	return SecureCompare(SignMessage(secretKey, routingKey, timestamp, body), signature)
}

package utils

import "testing"

func TestSignAndVerifyMessage(t *testing.T) {
	body := []byte(`{"object_key":"jobs/1/a.pdf"}`)
	sig := SignMessage("secret", "storage.orphan", 1700000000, body)

	if len(sig) != 64 {
		t.Fatalf("expected hex sha256 signature, got %q", sig)
	}
	if !VerifyMessage("secret", "storage.orphan", 1700000000, body, sig) {
		t.Error("valid signature rejected")
	}
	if VerifyMessage("other", "storage.orphan", 1700000000, body, sig) {
		t.Error("signature accepted with wrong key")
	}
	if VerifyMessage("secret", "storage.orphan", 1700000001, body, sig) {
		t.Error("signature accepted with wrong timestamp")
	}
	if VerifyMessage("secret", "storage.orphan", 1700000000, []byte(`{}`), sig) {
		t.Error("signature accepted for a different body")
	}
	if VerifyMessage("", "storage.orphan", 1700000000, body, sig) {
		t.Error("empty key must never verify")
	}
}

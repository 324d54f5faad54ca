package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	secret := "test-secret-32-bytes-should-be-long-enough"
	tokenStr, err := GenerateSessionToken(secret, "sess-123", 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	sid, err := ParseSessionToken(secret, tokenStr)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if sid != "sess-123" {
		t.Fatalf("unexpected sid: got=%v want=%v", sid, "sess-123")
	}
}

func TestGenerateSessionToken_Expiry(t *testing.T) {
	secret := "another-secret-32-bytes-longgggg"
	tokenStr, err := GenerateSessionToken(secret, "s2", 1*time.Second)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	// wait for expiry
	time.Sleep(2 * time.Second)
	if _, err := ParseSessionToken(secret, tokenStr); err == nil {
		t.Fatalf("expected token parse to fail after expiry")
	}
}

func TestParseSessionToken_WrongSecretFails(t *testing.T) {
	tokenStr, err := GenerateSessionToken("secret-one-32-bytes-xxxxxxxxxxxxxxxx", "s3", 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	if _, err := ParseSessionToken("different-secret-xxxxxxxxxxxxxxxx", tokenStr); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseSessionToken_Malformed(t *testing.T) {
	if _, err := ParseSessionToken("x", "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseSessionToken_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sid":"s-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := ParseSessionToken("x", tok); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

func TestParseSessionToken_MissingSid(t *testing.T) {
	secret := "missing-sid-secret-32-bytes-xxxxxx"
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	tokenStr, err := jt.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseSessionToken(secret, tokenStr); err != ErrInvalidSessionToken {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

// Tampering with payload must fail signature verification
func TestParseSessionToken_TamperedPayload(t *testing.T) {
	secret := "tamper-test-secret-32-bytes-xxxxxxx"
	tokenStr, err := GenerateSessionToken(secret, "victim", 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := base64.RawURLEncoding.DecodeString(parts[1])
	payloadStr := strings.Replace(string(payloadBytes), "victim", "attacker", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payloadStr))
	tampered := strings.Join(parts, ".")
	if _, err := ParseSessionToken(secret, tampered); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

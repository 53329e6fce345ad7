package reservations

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet excludes 0/O and 1/I to keep codes readable over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReservationCode returns a unique human-readable code of the
// form RSV-20260831-X7K2QD. The date prefix makes codes sortable at the
// front desk; the random suffix carries the uniqueness.
func GenerateReservationCode(now time.Time) (string, error) {
	suffix, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RSV-%s-%s", now.Format("20060102"), suffix), nil
}

// GenerateTransactionID returns an opaque payment transaction reference.
func GenerateTransactionID(now time.Time) (string, error) {
	suffix, err := randomCode(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TXN-%d-%s", now.Unix(), suffix), nil
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

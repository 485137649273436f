package recoverycodes

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
)

// DefaultCodeCount is the batch size generated per user
const DefaultCodeCount = 10

// codeAlphabet excludes ambiguous characters (0/O, 1/I/L)
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 10

// Manager generates and redeems single-use recovery codes.
type Manager struct {
	repo RecoveryCodeRepository
}

// NewManager creates a new recovery code Manager
func NewManager(repo RecoveryCodeRepository) *Manager {
	return &Manager{repo: repo}
}

// GenerateCodes invalidates every previously generated, unredeemed code for
// the user and replaces the batch with count fresh single-use codes. The
// plaintext codes are returned once; only fingerprints are stored.
func (m *Manager) GenerateCodes(ctx context.Context, userID uuid.UUID, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultCodeCount
	}

	codes := make([]string, count)
	hashes := make([]string, count)
	for i := 0; i < count; i++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}
		codes[i] = code
		hashes[i] = FingerprintCode(code)
	}

	if err := m.repo.ReplaceCodes(ctx, userID, hashes); err != nil {
		slog.Error("Failed to store recovery codes", "userId", userID, "err", err)
		return nil, errors.Persistence(err, "failed to store recovery codes")
	}

	slog.Info("Generated recovery codes", "userId", userID, "count", count)
	return codes, nil
}

// RedeemCode consumes one unredeemed recovery code. The returned error is
// deliberately non-specific: an unknown code and an already-consumed code are
// indistinguishable to the caller.
func (m *Manager) RedeemCode(ctx context.Context, userID uuid.UUID, code string) error {
	if strings.TrimSpace(code) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "recovery code cannot be empty")
	}

	consumed, err := m.repo.ConsumeCode(ctx, userID, FingerprintCode(code))
	if err != nil {
		slog.Error("Failed to consume recovery code", "userId", userID, "err", err)
		return errors.Persistence(err, "failed to redeem recovery code")
	}
	if !consumed {
		slog.Warn("Recovery code redemption failed", "userId", userID)
		return errors.RedemptionFailed(nil)
	}

	slog.Info("Recovery code redeemed", "userId", userID)
	return nil
}

// RemainingCodes returns how many codes are still redeemable.
func (m *Manager) RemainingCodes(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := m.repo.CountUnconsumed(ctx, userID)
	if err != nil {
		return 0, errors.Persistence(err, "failed to count recovery codes")
	}
	return count, nil
}

// ClearCodes removes the user's batch entirely.
func (m *Manager) ClearCodes(ctx context.Context, userID uuid.UUID) error {
	if err := m.repo.DeleteCodes(ctx, userID); err != nil {
		return errors.Persistence(err, "failed to clear recovery codes")
	}
	return nil
}

// FingerprintCode returns the hex SHA-256 fingerprint of a normalized code.
func FingerprintCode(code string) string {
	sum := sha256.Sum256([]byte(normalizeCode(code)))
	return hex.EncodeToString(sum[:])
}

// normalizeCode strips spaces/dashes and uppercases, so "abcde-23456" and
// "ABCDE 23456" redeem the same stored code.
func normalizeCode(code string) string {
	code = strings.ToUpper(code)
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}

// generateCode produces one code formatted as XXXXX-XXXXX.
func generateCode() (string, error) {
	bytes := make([]byte, codeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	chars := make([]byte, codeLength)
	for i, b := range bytes {
		chars[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(chars[:5]) + "-" + string(chars[5:]), nil
}

package access

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rutacredit/rutacredit/internal/shared"
)

// CodeStore is the actor-store slice the access-code flow needs.
type CodeStore interface {
	SetAccessCode(ctx context.Context, actorID int64, code string, issuedAt time.Time) error
	ConfirmAccessCode(ctx context.Context, actorID int64, code string) (bool, error)
	ClearStaleAccessCodes(ctx context.Context, olderThan time.Time) (int64, error)
}

// Codes owns the access-code invariants: issuing a code atomically invalidates
// the previous one, and confirming a code is a one-way flag flip that never
// changes approval status. Approval itself is a separate administrative action
// on the actors service.
type Codes struct {
	store  CodeStore
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewCodes builds a Codes service.
func NewCodes(store CodeStore, audit *shared.AuditLogger, logger *slog.Logger) *Codes {
	return &Codes{store: store, audit: audit, logger: logger, now: time.Now}
}

// Issue generates and stores a fresh access code for the actor. The store swap
// is a single statement, so there is no window where both codes validate.
func (c *Codes) Issue(ctx context.Context, adminID, actorID int64) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	if err := c.store.SetAccessCode(ctx, actorID, code, c.now()); err != nil {
		return "", fmt.Errorf("store access code: %w", err)
	}
	c.recordAudit(ctx, adminID, "actor.access_code_issued", actorID)
	return code, nil
}

// Confirm validates the supplied code. A match flips the confirmed flag; a
// mismatch (including a previously issued, now replaced code) returns false.
func (c *Codes) Confirm(ctx context.Context, actorID int64, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	ok, err := c.store.ConfirmAccessCode(ctx, actorID, code)
	if err != nil {
		return false, err
	}
	if ok {
		c.recordAudit(ctx, actorID, "actor.access_code_confirmed", actorID)
	}
	return ok, nil
}

// SweepStale clears unconfirmed codes older than ttl and returns the count.
func (c *Codes) SweepStale(ctx context.Context, ttl time.Duration) (int64, error) {
	return c.store.ClearStaleAccessCodes(ctx, c.now().Add(-ttl))
}

func (c *Codes) recordAudit(ctx context.Context, byID int64, action string, actorID int64) {
	if c.audit == nil {
		return
	}
	err := c.audit.Record(ctx, shared.AuditLog{
		ActorID:  byID,
		Action:   action,
		Entity:   "actor",
		EntityID: strconv.FormatInt(actorID, 10),
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("record access code audit", slog.String("action", action), slog.Any("error", err))
	}
}

// generateCode returns a six digit numeric code suitable for reading out over
// the phone or sending by SMS.
func generateCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}

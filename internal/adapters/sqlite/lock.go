package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// LoadAndLock pose un verrou exclusif (jeton + expiration) puis charge l'entité.
// Un verrou expiré est repris silencieusement.
func (m *EntityManager) LoadAndLock(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error) {
	token := uuid.NewString()
	now := m.now()
	err := withTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := m.getRow(ctx, tx, oid, definition); err != nil {
			return err
		}
		holder, err := liveLock(ctx, tx, oid, formatTime(now))
		if err != nil {
			return err
		}
		if holder != "" {
			return fmt.Errorf("%s %s: %w", definition, oid, ports.ErrLocked)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_locks(oid, token, expires_at) VALUES(?, ?, ?)
			ON CONFLICT(oid) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		`, oid, token, formatTime(now.Add(m.LockTTL)))
		if err != nil {
			return fmt.Errorf("failed to lock entity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e, err := m.Load(ctx, oid, definition, opt)
	if err != nil {
		_ = m.Unlock(ctx, oid, token)
		return nil, err
	}
	e.LockToken = token
	m.logger.Debug().Str("definition", definition).Str("oid", oid).Msg("entity locked")
	return e, nil
}

// Unlock libère le verrou détenu par token. Libérer un verrou absent ou expiré est sans effet.
func (m *EntityManager) Unlock(ctx context.Context, oid, token string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM entity_locks WHERE oid = ? AND token = ?`, oid, token)
	if err != nil {
		return fmt.Errorf("failed to unlock entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	holder, err := liveLock(ctx, m.db, oid, formatTime(m.now()))
	if err != nil {
		return err
	}
	if holder != "" {
		return fmt.Errorf("%s: %w", oid, ports.ErrLocked)
	}
	return nil
}

// checkLock refuse l'écriture si un verrou vivant est détenu par un autre jeton.
func (m *EntityManager) checkLock(ctx context.Context, q queryer, oid, token string) error {
	holder, err := liveLock(ctx, q, oid, formatTime(m.now()))
	if err != nil {
		return err
	}
	if holder != "" && holder != token {
		return fmt.Errorf("%s: %w", oid, ports.ErrLocked)
	}
	return nil
}

func liveLock(ctx context.Context, q queryer, oid, now string) (string, error) {
	var token string
	err := q.QueryRowContext(ctx, `
		SELECT token FROM entity_locks WHERE oid = ? AND expires_at > ?
	`, oid, now).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read lock: %w", err)
	}
	return token, nil
}

func releaseLock(ctx context.Context, q queryer, oid string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM entity_locks WHERE oid = ?`, oid); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vaultpay/backend/internal/models"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- Users ---

const userColumns = `id, vault_id, name, email, phone, location, password_hash,
       balance, escrow_balance, unread_transaction_ids, created_at`

func (s *PgStore) CreateUser(ctx context.Context, u *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (vault_id, name, email, phone, location, password_hash, balance, escrow_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, u.VaultID, u.Name, u.Email, u.Phone, u.Location, u.PasswordHash, u.Balance, u.EscrowBalance,
	).Scan(&u.ID, &u.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_key" {
		return pkgerrors.ErrEmailExists
	}
	return err
}

func (s *PgStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PgStore) GetUserByVaultID(ctx context.Context, vaultID string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE vault_id = $1`, vaultID))
}

func (s *PgStore) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.VaultID, &u.Name, &u.Email, &u.Phone, &u.Location, &u.PasswordHash,
		&u.Balance, &u.EscrowBalance, &u.UnreadTransactionIDs, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PgStore) VaultIDExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE vault_id = $1)`, code).Scan(&exists)
	return exists, err
}

func (s *PgStore) MarkRead(ctx context.Context, userID, txnID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET unread_transaction_ids = array_remove(unread_transaction_ids, $1)
		WHERE id = $2
	`, txnID, userID)
	return err
}

// --- Transactions ---

const transactionColumns = `id, vtid, sender_id, receiver_id, amount, status, conditions,
       time_limit, created_at, accepted_at, completed_at, cancelled_at`

func (s *PgStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

func (s *PgStore) ListForUser(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	args := []any{userID}
	argIdx := 2

	switch f.Role {
	case "sender":
		query += ` WHERE sender_id = $1`
	case "receiver":
		query += ` WHERE receiver_id = $1`
	default:
		query += ` WHERE (sender_id = $1 OR receiver_id = $1)`
	}

	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *f.Status)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func (s *PgStore) ExpiredTransactionIDs(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM transactions
		WHERE status IN ('pending', 'accepted')
		  AND COALESCE(accepted_at, created_at) + (time_limit || ' hours')::interval < $1
	`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PgStore) VTIDExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE vtid = $1)`, code).Scan(&exists)
	return exists, err
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	var conditionsBytes []byte
	err := row.Scan(&t.ID, &t.VTID, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Status, &conditionsBytes,
		&t.TimeLimit, &t.CreatedAt, &t.AcceptedAt, &t.CompletedAt, &t.CancelledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditionsBytes, &t.Conditions); err != nil {
		return nil, fmt.Errorf("decode conditions: %w", err)
	}
	return &t, nil
}

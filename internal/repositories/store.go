package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/backend/internal/models"
)

// Store is the persistence boundary for the escrow core. Reads outside an
// atomic unit go through Store directly; every mutation runs inside WithinTx
// so that guard checks and writes commit or roll back as one unit.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVaultID(ctx context.Context, vaultID string) (*models.User, error)
	VaultIDExists(ctx context.Context, code string) (bool, error)
	MarkRead(ctx context.Context, userID, txnID uuid.UUID) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID, f TransactionFilter) ([]models.Transaction, error)
	ExpiredTransactionIDs(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
	VTIDExists(ctx context.Context, code string) (bool, error)
}

// Tx exposes the ledger and the transaction store inside one atomic unit.
// GetTransactionForUpdate takes the row lock that serializes racing status
// changes: the second writer re-reads the committed status and fails its
// guard instead of double-applying a balance move.
type Tx interface {
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error
	UpdateConditions(ctx context.Context, id uuid.UUID, conditions []models.Condition) error

	// Ledger. Each guard fails with ErrInsufficientFunds rather than
	// letting a balance go negative.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	MoveToEscrow(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	ReleaseFromEscrow(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error

	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	MarkUnread(ctx context.Context, userID, txnID uuid.UUID) error
}

type TransactionFilter struct {
	Role   string // "sender", "receiver" or empty for both sides
	Status *string
	Limit  int
	Offset int
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is a pending domain event written in the same transaction
// as the state change it describes.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
}

// Tx is the unit-of-work handle passed into service methods. Every method
// runs against one open database transaction; per-order serialization
// comes from the FOR UPDATE reads.
type Tx interface {
	CartLinesForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error)
	ProductByID(ctx context.Context, productID int64) (*domain.Product, error)
	InsertOrder(ctx context.Context, order *domain.Order) error
	ClearCart(ctx context.Context, customerID string) error
	OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	SetTransactionRef(ctx context.Context, orderID uuid.UUID, ref string) error
	UpdateOrderState(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, mode domain.PaymentMode, isPaid bool) error
	AppendEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error
}

// Store is what the order, placement and payment services depend on.
// Write paths go through WithinTx; the rest are plain reads.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	CartLines(ctx context.Context, customerID string) ([]domain.CartLine, error)
	OrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	EnsureCustomer(ctx context.Context, customerID string) error
	UpsertCartLine(ctx context.Context, customerID string, productID int64, qty int) error
	UpdateCartLineQty(ctx context.Context, customerID string, productID int64, qty int) error
	RemoveCartLine(ctx context.Context, customerID string, productID int64) error
	UnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID int64) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Println("connected to postgres")
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "shop_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// WithinTx opens a transaction, hands the scoped handle to fn and commits
// when fn returns nil. Any error (including early returns and panics via
// the deferred rollback) leaves the database untouched.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

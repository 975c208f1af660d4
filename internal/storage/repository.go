// Package storage implements the service store ports on SQLite.
//
// Instants are stored as fixed-width UTC strings so that SQL range
// comparisons order chronologically; monetary amounts are stored as exact
// decimal strings and never pass through floating point.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width (zero-padded nanoseconds) so lexical and
// chronological order agree. All stored values are UTC.
const timeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteRepository struct {
	db *sql.DB
}

var _ services.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, core.ErrStorage, err)
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx *core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, category_id, type, amount, description, source, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, nullID(tx.CategoryID), string(tx.Type), tx.Amount.String(),
		tx.Description, tx.Source, fmtTime(tx.Date), fmtTime(tx.CreatedAt))
	if err != nil {
		return storageErr("create transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create transaction", err)
	}
	tx.ID = id
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, type, amount, description, source, date, created_at
		FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, storageErr("get transaction", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx *core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, type = ?, amount = ?, description = ?, source = ?, date = ?
		WHERE id = ?`,
		nullID(tx.CategoryID), string(tx.Type), tx.Amount.String(),
		tx.Description, tx.Source, fmtTime(tx.Date), tx.ID)
	if err != nil {
		return storageErr("update transaction", err)
	}
	return requireRow(res, core.ErrTransactionNotFound, "update transaction")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete transaction", err)
	}
	return requireRow(res, core.ErrTransactionNotFound, "delete transaction")
}

func (r *SQLiteRepository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, type, amount, description, source, date, created_at
		FROM transactions WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f services.TransactionFilter) ([]core.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, category_id, type, amount, description, source, date, created_at
		FROM transactions WHERE user_id = ? AND date >= ?`)
	args := []any{userID, fmtTime(f.From)}

	if f.ToInclusive {
		sb.WriteString(` AND date <= ?`)
	} else {
		sb.WriteString(` AND date < ?`)
	}
	args = append(args, fmtTime(f.To))

	if f.Type != "" && f.Type != core.FilterBoth {
		sb.WriteString(` AND type = ?`)
		args = append(args, string(f.Type))
	}
	if f.CategoryID != nil {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, *f.CategoryID)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx         core.Transaction
		categoryID sql.NullInt64
		txType     string
		amount     string
		date       string
		createdAt  string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &categoryID, &txType, &amount,
		&tx.Description, &tx.Source, &date, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.CategoryID = idPtr(categoryID)
	tx.Type = core.TransactionType(txType)
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if tx.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	out := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, storageErr("scan transaction", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return out, nil
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount, period_start, period_end)
		VALUES (?, ?, ?, ?, ?)`,
		b.UserID, nullID(b.CategoryID), b.Amount.String(),
		fmtTime(b.PeriodStart), fmtTime(b.PeriodEnd))
	if err != nil {
		return storageErr("create budget", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create budget", err)
	}
	b.ID = id
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount, period_start, period_end
		FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, storageErr("get budget", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount = ?, period_start = ?, period_end = ?
		WHERE id = ?`,
		nullID(b.CategoryID), b.Amount.String(),
		fmtTime(b.PeriodStart), fmtTime(b.PeriodEnd), b.ID)
	if err != nil {
		return storageErr("update budget", err)
	}
	return requireRow(res, core.ErrBudgetNotFound, "update budget")
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete budget", err)
	}
	return requireRow(res, core.ErrBudgetNotFound, "delete budget")
}

func (r *SQLiteRepository) ListBudgetsByUser(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount, period_start, period_end
		FROM budgets WHERE user_id = ? ORDER BY period_start DESC`, userID)
	if err != nil {
		return nil, storageErr("list budgets", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

// ListBudgetsOverlapping keeps the inclusive overlap rule: both budget
// bounds count, even against the half-open reporting interval.
func (r *SQLiteRepository) ListBudgetsOverlapping(ctx context.Context, userID int64, from, to time.Time, categoryID *int64) ([]core.Budget, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, category_id, amount, period_start, period_end
		FROM budgets WHERE user_id = ? AND period_start <= ? AND period_end >= ?`)
	args := []any{userID, fmtTime(to), fmtTime(from)}

	if categoryID != nil {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, *categoryID)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, storageErr("list overlapping budgets", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b           core.Budget
		categoryID  sql.NullInt64
		amount      string
		periodStart string
		periodEnd   string
	)
	err := row.Scan(&b.ID, &b.UserID, &categoryID, &amount, &periodStart, &periodEnd)
	if err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = idPtr(categoryID)
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Budget{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if b.PeriodStart, err = parseTime(periodStart); err != nil {
		return core.Budget{}, fmt.Errorf("parse period_start %q: %w", periodStart, err)
	}
	if b.PeriodEnd, err = parseTime(periodEnd); err != nil {
		return core.Budget{}, fmt.Errorf("parse period_end %q: %w", periodEnd, err)
	}
	return b, nil
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, storageErr("scan budget", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate budgets", err)
	}
	return out, nil
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name) VALUES (?, ?)`,
		nullID(c.UserID), c.Name)
	if err != nil {
		return storageErr("create category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create category", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var (
		c      core.Category
		userID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &userID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, storageErr("get category", err)
	}
	c.UserID = idPtr(userID)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return storageErr("update category", err)
	}
	return requireRow(res, core.ErrCategoryNotFound, "update category")
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		// RESTRICT foreign keys reject deleting a referenced category.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return core.ErrCategoryInUse
		}
		return storageErr("delete category", err)
	}
	return requireRow(res, core.ErrCategoryNotFound, "delete category")
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name FROM categories
		WHERE user_id IS NULL OR user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var (
			c     core.Category
			owner sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &owner, &c.Name); err != nil {
			return nil, storageErr("scan category", err)
		}
		c.UserID = idPtr(owner)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate categories", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CategoryNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM categories WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, storageErr("resolve category names", err)
	}
	defer rows.Close()

	out := make(map[int64]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, storageErr("scan category name", err)
		}
		out[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate category names", err)
	}
	return out, nil
}

// --- notifications ---

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message, read, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Message, n.Read, fmtTime(n.CreatedAt))
	if err != nil {
		return storageErr("create notification", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create notification", err)
	}
	n.ID = id
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]core.Notification, error) {
	query := `
		SELECT id, user_id, type, message, read, created_at, dispatched_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storageErr("list notifications", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n          core.Notification
			kind       string
			createdAt  string
			dispatched sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Message, &n.Read, &createdAt, &dispatched); err != nil {
			return nil, storageErr("scan notification", err)
		}
		n.Type = core.NotificationType(kind)
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storageErr("parse notification created_at", err)
		}
		if dispatched.Valid {
			t, err := parseTime(dispatched.String)
			if err != nil {
				return nil, storageErr("parse notification dispatched_at", err)
			}
			n.DispatchedAt = &t
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate notifications", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return storageErr("mark notification read", err)
	}
	return requireRow(res, core.ErrNotFound, "mark notification read")
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID)
	if err != nil {
		return storageErr("mark all notifications read", err)
	}
	return nil
}

func (r *SQLiteRepository) UnreadNotificationCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).
		Scan(&count)
	if err != nil {
		return 0, storageErr("count unread notifications", err)
	}
	return count, nil
}

func (r *SQLiteRepository) MarkNotificationDispatched(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET dispatched_at = ? WHERE id = ?`,
		fmtTime(time.Now()), id)
	if err != nil {
		return storageErr("mark notification dispatched", err)
	}
	return requireRow(res, core.ErrNotFound, "mark notification dispatched")
}

func requireRow(res sql.Result, missing error, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}

// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/bakeshop-system/internal/apperr"
	"github.com/mmeshcher/bakeshop-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ошибки уровня хранилища. Каждая оборачивает базовую ошибку своей категории.
var (
	// ErrSlotFull возвращается, когда все места слота уже заняты.
	ErrSlotFull = fmt.Errorf("%w: slot is fully booked", apperr.ErrConflict)
	// ErrCouponExhausted возвращается, когда лимит использований купона исчерпан.
	ErrCouponExhausted = fmt.Errorf("%w: coupon usage limit reached", apperr.ErrConflict)
	// ErrQuoteNotApproved возвращается при попытке конвертировать предложение не в статусе approved.
	ErrQuoteNotApproved = fmt.Errorf("%w: quote is not approved", apperr.ErrConflict)
	// ErrDuplicateNumber возвращается при коллизии номера документа.
	ErrDuplicateNumber = fmt.Errorf("%w: document number already exists", apperr.ErrConflict)
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// IsRetryable сообщает, имеет ли смысл повторить операцию после этой ошибки.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateOrder сохраняет новую заявку.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	payload, err := json.Marshal(o.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var holdID *string
	if o.HoldID != "" {
		holdID = &o.HoldID
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO orders
		 (id, order_type, status, customer_name, customer_email, customer_phone,
		  requested_date, requested_time, delivery, address, total_cents, coupon_code, hold_id, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, string(o.Type), string(o.Status), o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.RequestedDate, o.RequestedTime, o.Delivery, o.Address, o.TotalCents, o.CouponCode, holdID, payload,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o       model.Order
		typ     string
		status  string
		holdID  *string
		payload []byte
	)
	err := row.Scan(&o.ID, &typ, &status, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.RequestedDate, &o.RequestedTime, &o.Delivery, &o.Address, &o.TotalCents,
		&o.CouponCode, &holdID, &payload, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Type = model.OrderType(typ)
	o.Status = model.OrderStatus(status)
	if holdID != nil {
		o.HoldID = *holdID
	}
	if err := json.Unmarshal(payload, &o.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &o, nil
}

const orderColumns = `id, order_type, status, customer_name, customer_email, customer_phone,
	 requested_date, requested_time, delivery, address, total_cents, coupon_code, hold_id, payload, created_at`

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderByHold возвращает заказ, ссылающийся на указанное удержание слота.
// При отмене заказа ссылка обнуляется, так что найденный заказ всегда живой.
func (r *PostgresRepository) GetOrderByHold(ctx context.Context, holdID string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE hold_id = $1`, holdID)
	return scanOrder(row)
}

// ListOrders возвращает заказы, опционально отфильтрованные по статусу.
func (r *PostgresRepository) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	args := []any{}
	if status != "" {
		query = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, string(status))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus обновляет статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order", apperr.ErrNotFound)
	}
	return nil
}

// ReservedCounts возвращает занятость слотов типа заказа за диапазон дат.
// Чтение не сериализуется с бронированием: слегка устаревшая картина допустима.
func (r *PostgresRepository) ReservedCounts(ctx context.Context, t model.OrderType, start, end string) (map[string]map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT slot_date, slot_time, reserved
		 FROM slots
		 WHERE order_type = $1 AND slot_date BETWEEN $2 AND $3`,
		string(t), start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("select slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var date, tod string
		var reserved int
		if err := rows.Scan(&date, &tod, &reserved); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if out[date] == nil {
			out[date] = make(map[string]int)
		}
		out[date][tod] = reserved
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// ReserveSlot атомарно занимает одно место в слоте и создаёт запись удержания.
// Проверка и инкремент выполняются одним условным upsert: из двух конкурентных
// бронирований последнего места ровно одно получит ErrSlotFull.
func (r *PostgresRepository) ReserveSlot(ctx context.Context, hold model.SlotHold, capacity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO slots (order_type, slot_date, slot_time, capacity, reserved)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (order_type, slot_date, slot_time)
		 DO UPDATE SET reserved = slots.reserved + 1
		 WHERE slots.reserved < slots.capacity`,
		string(hold.OrderType), hold.Date, hold.Time, capacity,
	)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO slot_holds (id, order_type, slot_date, slot_time, confirmed)
		 VALUES ($1, $2, $3, $4, false)`,
		hold.ID, string(hold.OrderType), hold.Date, hold.Time,
	)
	if err != nil {
		return fmt.Errorf("insert hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetHold возвращает удержание слота по идентификатору.
func (r *PostgresRepository) GetHold(ctx context.Context, id string) (*model.SlotHold, error) {
	var (
		h   model.SlotHold
		typ string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_type, slot_date, slot_time, confirmed, created_at
		 FROM slot_holds WHERE id = $1`,
		id,
	).Scan(&h.ID, &typ, &h.Date, &h.Time, &h.Confirmed, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: slot hold", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get hold: %w", err)
	}
	h.OrderType = model.OrderType(typ)
	return &h, nil
}

// releaseHoldTx снимает удержание внутри транзакции: удаляет запись, уменьшает
// счётчик слота (не ниже нуля) и отвязывает заказ, если он ссылался на удержание.
func releaseHoldTx(ctx context.Context, tx pgx.Tx, holdID string) error {
	var (
		typ, date, tod string
	)
	err := tx.QueryRow(ctx,
		`DELETE FROM slot_holds WHERE id = $1 RETURNING order_type, slot_date, slot_time`,
		holdID,
	).Scan(&typ, &date, &tod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Уже снято — идемпотентный no-op.
			return nil
		}
		return fmt.Errorf("delete hold: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE slots SET reserved = reserved - 1
		 WHERE order_type = $1 AND slot_date = $2 AND slot_time = $3 AND reserved > 0`,
		typ, date, tod,
	)
	if err != nil {
		return fmt.Errorf("decrement slot: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET hold_id = NULL WHERE hold_id = $1`, holdID)
	if err != nil {
		return fmt.Errorf("detach hold from order: %w", err)
	}
	return nil
}

// ReleaseHold снимает удержание слота. Повторный вызов — no-op.
func (r *PostgresRepository) ReleaseHold(ctx context.Context, holdID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := releaseHoldTx(ctx, tx, holdID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CancelOrder переводит заказ в cancelled и в той же транзакции снимает его
// удержание слота, чтобы эти два изменения никогда не разошлись.
func (r *PostgresRepository) CancelOrder(ctx context.Context, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var holdID *string
	err = tx.QueryRow(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 RETURNING hold_id`,
		orderID, string(model.OrderStatusCancelled),
	).Scan(&holdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order", apperr.ErrNotFound)
		}
		return fmt.Errorf("cancel order: %w", err)
	}

	if holdID != nil {
		if err := releaseHoldTx(ctx, tx, *holdID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetCoupon возвращает купон по коду без учёта регистра.
func (r *PostgresRepository) GetCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	var (
		c          model.Coupon
		dtype      string
		orderTypes *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT code, active, discount_type, discount_value, min_order_cents,
		        max_uses, current_uses, valid_from, valid_until, order_types
		 FROM coupons WHERE lower(code) = lower($1)`,
		code,
	).Scan(&c.Code, &c.Active, &dtype, &c.DiscountValue, &c.MinOrderCents,
		&c.MaxUses, &c.CurrentUses, &c.ValidFrom, &c.ValidUntil, &orderTypes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: coupon", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	c.DiscountType = model.DiscountType(dtype)
	if orderTypes != nil && *orderTypes != "" {
		for _, t := range strings.Split(*orderTypes, ",") {
			c.OrderTypes = append(c.OrderTypes, model.OrderType(strings.TrimSpace(t)))
		}
	}
	return &c, nil
}

// consumeCouponTx увеличивает счётчик использований купона, не превышая лимит.
func consumeCouponTx(ctx context.Context, tx pgx.Tx, code string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE coupons SET current_uses = current_uses + 1
		 WHERE lower(code) = lower($1)
		   AND (max_uses IS NULL OR current_uses < max_uses)`,
		code,
	)
	if err != nil {
		return fmt.Errorf("consume coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponExhausted
	}
	return nil
}

// CreateQuote сохраняет новое предложение без позиций.
func (r *PostgresRepository) CreateQuote(ctx context.Context, q *model.Quote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quotes
		 (id, number, order_id, status, deposit_percent, subtotal_cents, deposit_cents, balance_cents, valid_until)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.Number, q.OrderID, string(q.Status), q.DepositPercent,
		q.SubtotalCents, q.DepositCents, q.BalanceCents, q.ValidUntil,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// GetQuote возвращает предложение вместе с позициями.
func (r *PostgresRepository) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	var (
		q      model.Quote
		status string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, order_id, status, deposit_percent,
		        subtotal_cents, deposit_cents, balance_cents, valid_until, created_at
		 FROM quotes WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Number, &q.OrderID, &status, &q.DepositPercent,
		&q.SubtotalCents, &q.DepositCents, &q.BalanceCents, &q.ValidUntil, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: quote", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	q.Status = model.QuoteStatus(status)

	rows, err := r.pool.Query(ctx,
		`SELECT description, quantity, unit_cents, total_cents
		 FROM quote_items WHERE quote_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select quote items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.LineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitCents, &it.TotalCents); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return &q, nil
}

// ReplaceQuoteItems атомарно заменяет весь набор позиций и пересчитанные итоги.
// Частичное сохранение невозможно: либо новый набор целиком, либо прежний.
func (r *PostgresRepository) ReplaceQuoteItems(ctx context.Context, quoteID string, items []model.LineItem, subtotal, deposit, balance int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID); err != nil {
		return fmt.Errorf("delete quote items: %w", err)
	}

	for i, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO quote_items (quote_id, position, description, quantity, unit_cents, total_cents)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			quoteID, i, it.Description, it.Quantity, it.UnitCents, it.TotalCents,
		)
		if err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE quotes SET subtotal_cents = $2, deposit_cents = $3, balance_cents = $4 WHERE id = $1`,
		quoteID, subtotal, deposit, balance,
	)
	if err != nil {
		return fmt.Errorf("update quote totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote", apperr.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateQuoteStatus обновляет статус предложения.
func (r *PostgresRepository) UpdateQuoteStatus(ctx context.Context, id string, status model.QuoteStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote", apperr.ErrNotFound)
	}
	return nil
}

// ConfirmDeposit фиксирует подтверждение предоплаты одной транзакцией:
// предложение конвертируется, заказ меняет статус, использование купона
// списывается, удержание слота становится подтверждённым.
func (r *PostgresRepository) ConfirmDeposit(ctx context.Context, orderID, quoteID string, orderStatus model.OrderStatus, couponCode, holdID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE quotes SET status = $2 WHERE id = $1 AND status = $3`,
		quoteID, string(model.QuoteStatusConverted), string(model.QuoteStatusApproved),
	)
	if err != nil {
		return fmt.Errorf("convert quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuoteNotApproved
	}

	tag, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, string(orderStatus),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order", apperr.ErrNotFound)
	}

	if couponCode != "" {
		if err := consumeCouponTx(ctx, tx, couponCode); err != nil {
			return err
		}
	}

	if holdID != "" {
		if _, err := tx.Exec(ctx, `UPDATE slot_holds SET confirmed = true WHERE id = $1`, holdID); err != nil {
			return fmt.Errorf("confirm hold: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateContract сохраняет новый договор.
func (r *PostgresRepository) CreateContract(ctx context.Context, c *model.Contract) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contracts (id, number, order_id, status, body, valid_until)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Number, c.OrderID, string(c.Status), c.Body, c.ValidUntil,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

// GetContract возвращает договор по идентификатору.
func (r *PostgresRepository) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	var (
		c      model.Contract
		status string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, order_id, status, body, valid_until, signed_at, signer_name, created_at
		 FROM contracts WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Number, &c.OrderID, &status, &c.Body, &c.ValidUntil, &c.SignedAt, &c.SignerName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: contract", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	c.Status = model.ContractStatus(status)
	return &c, nil
}

// GetContractByOrder возвращает последний по времени договор заказа.
func (r *PostgresRepository) GetContractByOrder(ctx context.Context, orderID string) (*model.Contract, error) {
	var (
		c      model.Contract
		status string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, order_id, status, body, valid_until, signed_at, signer_name, created_at
		 FROM contracts WHERE order_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		orderID,
	).Scan(&c.ID, &c.Number, &c.OrderID, &status, &c.Body, &c.ValidUntil, &c.SignedAt, &c.SignerName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: contract", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("get contract by order: %w", err)
	}
	c.Status = model.ContractStatus(status)
	return &c, nil
}

// UpdateContractStatus обновляет статус договора.
func (r *PostgresRepository) UpdateContractStatus(ctx context.Context, id string, status model.ContractStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update contract status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: contract", apperr.ErrNotFound)
	}
	return nil
}

// SignContract фиксирует подписание договора.
func (r *PostgresRepository) SignContract(ctx context.Context, id, signerName string, signedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts SET status = $2, signer_name = $3, signed_at = $4 WHERE id = $1`,
		id, string(model.ContractStatusSigned), signerName, signedAt,
	)
	if err != nil {
		return fmt.Errorf("sign contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: contract", apperr.ErrNotFound)
	}
	return nil
}

// ExpireSentQuotes переводит в expired отправленные предложения с истёкшим сроком.
func (r *PostgresRepository) ExpireSentQuotes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET status = $1 WHERE status = $2 AND valid_until < $3`,
		string(model.QuoteStatusExpired), string(model.QuoteStatusSent), now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire quotes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireSentContracts переводит в expired отправленные договоры с истёкшим сроком.
func (r *PostgresRepository) ExpireSentContracts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contracts SET status = $1 WHERE status = $2 AND valid_until < $3`,
		string(model.ContractStatusExpired), string(model.ContractStatusSent), now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire contracts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StaleHoldIDs возвращает неподтверждённые удержания старше указанного момента,
// чьи заказы так и не дошли до оплаты (или вовсе не были созданы).
func (r *PostgresRepository) StaleHoldIDs(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT h.id
		 FROM slot_holds h
		 LEFT JOIN orders o ON o.hold_id = h.id
		 WHERE h.confirmed = false
		   AND h.created_at < $1
		   AND (o.id IS NULL OR o.status = $2)`,
		before, string(model.OrderStatusInquiry),
	)
	if err != nil {
		return nil, fmt.Errorf("select stale holds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hold id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}

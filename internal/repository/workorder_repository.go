package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/lumenik-backend/internal/models"
)

// ErrOrderNotFound возвращается, когда запись о работе не найдена.
var ErrOrderNotFound = errors.New("work order not found")

// PaymentExceedsError возвращается, когда платёж превышает остаток долга.
// Remaining сообщает вызывающему, сколько на самом деле осталось оплатить.
type PaymentExceedsError struct {
	Remaining float64
}

func (e *PaymentExceedsError) Error() string {
	return fmt.Sprintf("payment exceeds remaining debt (%.2f)", e.Remaining)
}

const orderColumns = `id, client_id, employee_id, service_type, description, console, total_gb,
	status, cost, amount_paid, fully_paid, created_at, started_at, finished_at`

// WorkOrderRepository отвечает за таблицы work_orders, work_order_games
// и work_order_payments.
type WorkOrderRepository struct {
	db *sqlx.DB
}

// NewWorkOrderRepository создаёт экземпляр репозитория.
func NewWorkOrderRepository(db *sqlx.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// Create сохраняет новую запись о работе вместе со списком игр.
func (r *WorkOrderRepository) Create(ctx context.Context, order *models.WorkOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("work order repository: begin %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO work_orders (client_id, employee_id, service_type, description, console,
			total_gb, status, cost, amount_paid, fully_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, FALSE)
		RETURNING id, created_at
	`
	err = tx.QueryRowxContext(
		ctx, query,
		order.ClientID, order.EmployeeID, order.ServiceType, order.Description,
		order.Console, order.TotalGB, order.Status, order.Cost,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("work order repository: create %w", err)
	}

	if err := insertOrderGames(ctx, tx, order.ID, order.Games); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID возвращает запись о работе вместе с играми и журналом платежей.
func (r *WorkOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	query := `SELECT ` + orderColumns + ` FROM work_orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("work order repository: get by id %w", err)
	}

	if err := r.loadDetails(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll возвращает все записи о работе, новые первыми.
func (r *WorkOrderRepository) ListAll(ctx context.Context) ([]models.WorkOrder, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM work_orders ORDER BY created_at DESC`)
}

// ListByClient возвращает записи одного клиента.
func (r *WorkOrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.WorkOrder, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

// ListByEmployee возвращает записи одного сотрудника.
func (r *WorkOrderRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.WorkOrder, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
}

// ListPending возвращает ожидающие записи, старые первыми.
// employeeID == nil — по всем сотрудникам.
func (r *WorkOrderRepository) ListPending(ctx context.Context, employeeID *uuid.UUID) ([]models.WorkOrder, error) {
	if employeeID != nil {
		return r.list(ctx,
			`SELECT `+orderColumns+` FROM work_orders WHERE status = $1 AND employee_id = $2 ORDER BY created_at`,
			models.OrderStatusPending, *employeeID)
	}
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM work_orders WHERE status = $1 ORDER BY created_at`,
		models.OrderStatusPending)
}

// WorkOrderUpdate описывает частичное обновление записи о работе.
// Nil поля не изменяются. Games == nil означает «не трогать список игр».
type WorkOrderUpdate struct {
	Description *string
	Cost        *float64
	Console     *string
	TotalGB     *float64
	Games       []uuid.UUID
}

// Update применяет частичное обновление описательных и финансовых полей.
// Контроль состояния (только pending) выполняет сервис.
func (r *WorkOrderRepository) Update(ctx context.Context, id uuid.UUID, upd WorkOrderUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("work order repository: begin %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE work_orders SET
			description = COALESCE($2, description),
			cost = COALESCE($3, cost),
			console = COALESCE($4, console),
			total_gb = COALESCE($5, total_gb),
			fully_paid = (amount_paid >= COALESCE($3, cost))
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, query, id, upd.Description, upd.Cost, upd.Console, upd.TotalGB)
	if err != nil {
		return fmt.Errorf("work order repository: update %w", err)
	}
	if err := requireAffected(res, ErrOrderNotFound); err != nil {
		return err
	}

	if upd.Games != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_order_games WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("work order repository: clear games %w", err)
		}
		if err := insertOrderGames(ctx, tx, id, upd.Games); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ChangeStatus переводит запись в новое состояние и проставляет временные метки.
// Допустимость перехода проверяет сервис.
func (r *WorkOrderRepository) ChangeStatus(ctx context.Context, id uuid.UUID, status string) error {
	now := time.Now()
	var query string
	switch status {
	case models.OrderStatusInProgress:
		query = `UPDATE work_orders SET status = $2, started_at = $3 WHERE id = $1`
	case models.OrderStatusCompleted:
		query = `UPDATE work_orders SET status = $2, finished_at = $3 WHERE id = $1`
	default:
		query = `UPDATE work_orders SET status = $2 WHERE id = $1`
	}

	var res sql.Result
	var err error
	if status == models.OrderStatusInProgress || status == models.OrderStatusCompleted {
		res, err = r.db.ExecContext(ctx, query, id, status, now)
	} else {
		res, err = r.db.ExecContext(ctx, query, id, status)
	}
	if err != nil {
		return fmt.Errorf("work order repository: change status %w", err)
	}
	return requireAffected(res, ErrOrderNotFound)
}

// Delete удаляет запись о работе вместе с играми и платежами (каскад в схеме).
func (r *WorkOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("work order repository: delete %w", err)
	}
	return requireAffected(res, ErrOrderNotFound)
}

// DeleteAllByClient удаляет все записи клиента и возвращает их количество.
// Используется каскадным удалением учётной записи.
func (r *WorkOrderRepository) DeleteAllByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_orders WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("work order repository: delete by client %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// RecordPayment регистрирует платёж по записи о работе.
//
// Чтение текущего состояния, проверка инварианта amount_paid <= cost и запись
// выполняются в одной транзакции с блокировкой строки (SELECT ... FOR UPDATE),
// поэтому два одновременных платежа по одной записи не могут затереть друг
// друга. При превышении долга возвращается PaymentExceedsError с реальным
// остатком.
func (r *WorkOrderRepository) RecordPayment(ctx context.Context, orderID uuid.UUID, amount float64) (*models.WorkOrder, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("work order repository: begin %w", err)
	}
	defer tx.Rollback()

	var order models.WorkOrder
	err = tx.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM work_orders WHERE id = $1 FOR UPDATE`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("work order repository: lock order %w", err)
	}

	newPaid := order.AmountPaid + amount
	if newPaid > order.Cost {
		return nil, &PaymentExceedsError{Remaining: order.Cost - order.AmountPaid}
	}

	remaining := order.Cost - newPaid
	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_order_payments (order_id, amount, paid_at, remaining_after)
		VALUES ($1, $2, $3, $4)
	`, orderID, amount, now, remaining)
	if err != nil {
		return nil, fmt.Errorf("work order repository: insert payment %w", err)
	}

	fullyPaid := newPaid >= order.Cost
	_, err = tx.ExecContext(ctx, `
		UPDATE work_orders SET amount_paid = $2, fully_paid = $3 WHERE id = $1
	`, orderID, newPaid, fullyPaid)
	if err != nil {
		return nil, fmt.Errorf("work order repository: update paid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("work order repository: commit payment %w", err)
	}

	order.AmountPaid = newPaid
	order.FullyPaid = fullyPaid
	// Ответ на платёж отдаётся в том же виде, что и GetByID: со списком игр
	// и журналом, в котором уже есть новая строка.
	if err := r.loadDetails(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ResetDebt назначает новую стоимость и очищает журнал платежей.
func (r *WorkOrderRepository) ResetDebt(ctx context.Context, orderID uuid.UUID, newCost float64) (*models.WorkOrder, error) {
	return r.resetLedger(ctx, orderID, &newCost)
}

// ClearPayments очищает журнал платежей, не меняя стоимость.
func (r *WorkOrderRepository) ClearPayments(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	return r.resetLedger(ctx, orderID, nil)
}

// resetLedger обнуляет оплату и журнал платежей; newCost == nil оставляет
// стоимость прежней.
func (r *WorkOrderRepository) resetLedger(ctx context.Context, orderID uuid.UUID, newCost *float64) (*models.WorkOrder, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("work order repository: begin %w", err)
	}
	defer tx.Rollback()

	var order models.WorkOrder
	query := `
		UPDATE work_orders SET
			cost = COALESCE($2, cost),
			amount_paid = 0,
			fully_paid = FALSE
		WHERE id = $1
		RETURNING ` + orderColumns
	err = tx.GetContext(ctx, &order, query, orderID, newCost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("work order repository: reset ledger %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_order_payments WHERE order_id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("work order repository: clear payments %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("work order repository: commit reset %w", err)
	}
	if err := r.loadDetails(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Stats возвращает агрегаты по записям о работе. Выручка считается по
// завершённым записям.
func (r *WorkOrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	var stats models.OrderStats
	query := `
		SELECT
			COUNT(*) AS total_orders,
			COUNT(*) FILTER (WHERE status = $1) AS completed,
			COUNT(*) FILTER (WHERE status = $2) AS pending,
			COALESCE(SUM(cost) FILTER (WHERE status = $1), 0) AS total_revenue
		FROM work_orders
	`
	row := r.db.QueryRowxContext(ctx, query, models.OrderStatusCompleted, models.OrderStatusPending)
	if err := row.Scan(&stats.TotalOrders, &stats.Completed, &stats.Pending, &stats.TotalRevenue); err != nil {
		return nil, fmt.Errorf("work order repository: stats %w", err)
	}
	return &stats, nil
}

// list выполняет запрос и подгружает детали для каждой записи.
func (r *WorkOrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("work order repository: list %w", err)
	}
	for i := range orders {
		if err := r.loadDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// loadDetails подгружает список игр и журнал платежей записи.
func (r *WorkOrderRepository) loadDetails(ctx context.Context, order *models.WorkOrder) error {
	var games pq.StringArray
	err := r.db.GetContext(ctx, &games, `
		SELECT COALESCE(ARRAY_AGG(game_id::text ORDER BY position), '{}')
		FROM work_order_games
		WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return fmt.Errorf("work order repository: load games %w", err)
	}
	order.Games = make([]uuid.UUID, 0, len(games))
	for _, raw := range games {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("work order repository: parse game id %w", err)
		}
		order.Games = append(order.Games, id)
	}

	order.Payments = []models.PaymentEntry{}
	err = r.db.SelectContext(ctx, &order.Payments, `
		SELECT id, order_id, amount, paid_at, remaining_after
		FROM work_order_payments
		WHERE order_id = $1
		ORDER BY paid_at
	`, order.ID)
	if err != nil {
		return fmt.Errorf("work order repository: load payments %w", err)
	}
	return nil
}

// insertOrderGames сохраняет упорядоченный список игр записи.
func insertOrderGames(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, games []uuid.UUID) error {
	for i, gameID := range games {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_order_games (order_id, game_id, position)
			VALUES ($1, $2, $3)
		`, orderID, gameID, i)
		if err != nil {
			return fmt.Errorf("work order repository: insert game %w", err)
		}
	}
	return nil
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkOrder описывает одну оплачиваемую работу (установку или скачивание игр).
//
// Финансовая часть: Cost меняется только пока запись pending (или через
// переназначение долга), AmountPaid растёт только через платежи, Payments —
// журнал только на добавление. Остаток долга нигде не хранится, он всегда
// вычисляется через Remaining().
type WorkOrder struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClientID    uuid.UUID  `db:"client_id" json:"client_id"`
	EmployeeID  *uuid.UUID `db:"employee_id" json:"employee_id,omitempty"`
	ServiceType string     `db:"service_type" json:"service_type"`
	Description string     `db:"description" json:"description"`
	Console     string     `db:"console" json:"console"`
	TotalGB     float64    `db:"total_gb" json:"total_gb"`
	Status      string     `db:"status" json:"status"`
	Cost        float64    `db:"cost" json:"cost"`
	AmountPaid  float64    `db:"amount_paid" json:"amount_paid"`
	FullyPaid   bool       `db:"fully_paid" json:"fully_paid"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at,omitempty"`

	Games    []uuid.UUID    `db:"-" json:"games"`
	Payments []PaymentEntry `db:"-" json:"payments"`
}

// Remaining возвращает остаток долга. Значение всегда вычисляется заново,
// а не читается из сохранённого поля.
func (o *WorkOrder) Remaining() float64 {
	remaining := o.Cost - o.AmountPaid
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarshalJSON добавляет к сериализованной записи вычисляемое поле remaining.
func (o *WorkOrder) MarshalJSON() ([]byte, error) {
	type alias WorkOrder
	return json.Marshal(struct {
		*alias
		Remaining float64 `json:"remaining"`
	}{(*alias)(o), o.Remaining()})
}

// IsTerminal сообщает, находится ли запись в терминальном состоянии.
func (o *WorkOrder) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// PaymentEntry — одна строка журнала платежей по записи о работе.
type PaymentEntry struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrderID        uuid.UUID `db:"order_id" json:"order_id"`
	Amount         float64   `db:"amount" json:"amount"`
	PaidAt         time.Time `db:"paid_at" json:"paid_at"`
	RemainingAfter float64   `db:"remaining_after" json:"remaining_after"`
}

// OrderStats содержит агрегаты по записям о работе.
type OrderStats struct {
	TotalOrders  int     `json:"total_orders"`
	Completed    int     `json:"completed"`
	Pending      int     `json:"pending"`
	TotalRevenue float64 `json:"total_revenue"`
}

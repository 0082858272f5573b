package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"laundry-system/internal/common/db"
	"laundry-system/internal/common/logger"
	"laundry-system/internal/domain"
)

// Postgres implements Store over pgx. Mutations publish a change notification
// after they commit; a failed publish is logged and swallowed because the
// polling fallback bounds staleness anyway.
type Postgres struct {
	conn     *db.Conn
	notifier Notifier
	lg       *logger.Logger
}

func NewPostgres(conn *db.Conn, notifier Notifier, lg *logger.Logger) *Postgres {
	if lg == nil {
		lg = logger.New("store")
	}
	return &Postgres{conn: conn, notifier: notifier, lg: lg}
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, orderID, unitID uuid.UUID, from, to domain.Status) error {
	tag, err := p.conn.Exec(ctx, `
		UPDATE orders SET status=$4, updated_at=now()
		WHERE id=$1 AND unit_id=$2 AND status=$3
	`, orderID, unitID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var cur string
		err := p.conn.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 AND unit_id=$2`, orderID, unitID).Scan(&cur)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("probe order status: %w", err)
		}
		return fmt.Errorf("%w: have %s, want %s", domain.ErrStatusConflict, cur, from)
	}
	p.notify(ctx, unitID, domain.TableOrders, "update")
	return nil
}

func (p *Postgres) AppendEvent(ctx context.Context, ev domain.OrderEvent) (uuid.UUID, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	_, err := p.conn.Exec(ctx, `
		INSERT INTO order_events
			(id, order_id, unit_id, sector, event_type, operator_id, equipment_id, notes, processed_qty, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, ev.ID, ev.OrderID, ev.UnitID, string(ev.Sector), string(ev.EventType),
		ev.OperatorID, ev.EquipmentID, ev.Notes, ev.ProcessedQty, ev.OccurredAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("append event: %w", err)
	}
	p.notify(ctx, ev.UnitID, domain.TableEvents, "insert")
	return ev.ID, nil
}

func (p *Postgres) AppendSectorDetail(ctx context.Context, eventID uuid.UUID, d domain.SectorDetail) error {
	var err error
	switch v := d.(type) {
	case domain.SortingDetail:
		for itemID, recipeID := range v.RecipeAssignments {
			if _, err = p.conn.Exec(ctx, `
				INSERT INTO sorting_details (event_id, item_id, recipe_id) VALUES ($1,$2,$3)
			`, eventID, itemID, recipeID); err != nil {
				break
			}
		}
	case domain.WashingDetail:
		_, err = p.conn.Exec(ctx, `
			INSERT INTO washing_details (event_id, cycles) VALUES ($1,$2)
		`, eventID, v.Cycles)
	case domain.DryingDetail:
		_, err = p.conn.Exec(ctx, `
			INSERT INTO drying_details (event_id, temperature) VALUES ($1,$2)
		`, eventID, v.Temperature)
	case domain.IroningDetail:
		_, err = p.conn.Exec(ctx, `
			INSERT INTO ironing_details (event_id, press_count) VALUES ($1,$2)
		`, eventID, v.PressCount)
	case domain.ShippingDetail:
		_, err = p.conn.Exec(ctx, `
			INSERT INTO shipping_details (event_id, packaging_type, package_qty) VALUES ($1,$2,$3)
		`, eventID, v.PackagingType, v.PackageQty)
	default:
		return fmt.Errorf("unsupported sector detail %T", d)
	}
	if err != nil {
		return fmt.Errorf("append %s detail: %w", d.Kind(), err)
	}
	return nil
}

func (p *Postgres) AssignItemRecipes(ctx context.Context, orderID uuid.UUID, assignments map[uuid.UUID]uuid.UUID) error {
	for itemID, recipeID := range assignments {
		tag, err := p.conn.Exec(ctx, `
			UPDATE order_items SET recipe_id=$3 WHERE id=$1 AND order_id=$2
		`, itemID, orderID, recipeID)
		if err != nil {
			return fmt.Errorf("assign recipe to item %s: %w", itemID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("assign recipe: item %s not in order %s", itemID, orderID)
		}
	}
	return nil
}

func (p *Postgres) GetOrder(ctx context.Context, orderID, unitID uuid.UUID) (domain.Order, error) {
	var o domain.Order
	var status string
	err := p.conn.QueryRow(ctx, `
		SELECT id, number, unit_id, client_id, status, promised_at, COALESCE(notes,''), created_at
		FROM orders WHERE id=$1 AND unit_id=$2
	`, orderID, unitID).Scan(&o.ID, &o.Number, &o.UnitID, &o.ClientID, &status, &o.PromisedAt, &o.Notes, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.Status(status)
	return o, nil
}

func (p *Postgres) QueryOrders(ctx context.Context, unitID uuid.UUID, statuses ...domain.Status) ([]domain.Order, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	if len(filter) == 0 {
		for _, s := range domain.AllStatuses {
			filter = append(filter, string(s))
		}
	}
	rows, err := p.conn.Query(ctx, `
		SELECT id, number, unit_id, client_id, status, promised_at, COALESCE(notes,''), created_at
		FROM orders
		WHERE unit_id=$1 AND status = ANY($2)
		ORDER BY created_at ASC
	`, unitID, filter)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.Number, &o.UnitID, &o.ClientID, &status, &o.PromisedAt, &o.Notes, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = domain.Status(status)
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	if err := p.loadItems(ctx, ids, index, orders); err != nil {
		return nil, err
	}
	if err := p.loadEvents(ctx, ids, index, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (p *Postgres) loadItems(ctx context.Context, ids []uuid.UUID, index map[uuid.UUID]int, orders []domain.Order) error {
	rows, err := p.conn.Query(ctx, `
		SELECT id, order_id, category, pieces, recipe_id
		FROM order_items WHERE order_id = ANY($1) ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Category, &it.Pieces, &it.RecipeID); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func (p *Postgres) loadEvents(ctx context.Context, ids []uuid.UUID, index map[uuid.UUID]int, orders []domain.Order) error {
	rows, err := p.conn.Query(ctx, `
		SELECT id, order_id, unit_id, sector, event_type, operator_id, equipment_id, COALESCE(notes,''), processed_qty, occurred_at
		FROM order_events WHERE order_id = ANY($1) ORDER BY occurred_at ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ev domain.OrderEvent
		var sector, etype string
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.UnitID, &sector, &etype,
			&ev.OperatorID, &ev.EquipmentID, &ev.Notes, &ev.ProcessedQty, &ev.OccurredAt); err != nil {
			return err
		}
		ev.Sector = domain.Sector(sector)
		ev.EventType = domain.EventType(etype)
		if i, ok := index[ev.OrderID]; ok {
			orders[i].Events = append(orders[i].Events, ev)
		}
	}
	return rows.Err()
}

func (p *Postgres) CountByStatus(ctx context.Context, unitID uuid.UUID) (map[domain.Status]int, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT status, COUNT(*) FROM orders WHERE unit_id=$1 GROUP BY status
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	out := map[domain.Status]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[domain.Status(s)] = n
	}
	return out, rows.Err()
}

func (p *Postgres) ProcessedSince(ctx context.Context, unitID uuid.UUID, since time.Time) (int, int, error) {
	var events, pieces int
	err := p.conn.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(processed_qty), 0)
		FROM order_events
		WHERE unit_id=$1 AND event_type='exit' AND processed_qty IS NOT NULL AND occurred_at >= $2
	`, unitID, since).Scan(&events, &pieces)
	if err != nil {
		return 0, 0, fmt.Errorf("processed since: %w", err)
	}
	return events, pieces, nil
}

func (p *Postgres) DailyCompletions(ctx context.Context, unitID uuid.UUID, day time.Time) ([]Completion, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	rows, err := p.conn.Query(ctx, `
		SELECT o.id, o.promised_at, e.occurred_at
		FROM orders o
		JOIN order_events e ON e.order_id = o.id
		WHERE o.unit_id=$1 AND e.event_type='exit' AND e.sector='ironing'
		  AND e.occurred_at >= $2 AND e.occurred_at < $3
		ORDER BY e.occurred_at ASC
	`, unitID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("daily completions: %w", err)
	}
	defer rows.Close()
	var out []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.OrderID, &c.PromisedAt, &c.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) notify(ctx context.Context, unitID uuid.UUID, table, op string) {
	if p.notifier == nil {
		return
	}
	n := domain.ChangeNotification{UnitID: unitID, Table: table, Op: op, OccurredAt: time.Now().UTC()}
	if err := p.notifier.NotifyChange(ctx, n); err != nil {
		p.lg.Warn("change_notify_failed", err, map[string]any{"unit_id": unitID, "table": table})
	}
}

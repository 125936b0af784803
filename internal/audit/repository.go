package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Repository persists and queries the append-only trail. There is no update
// or delete path on purpose.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, actorID uuid.UUID, action, table string, recordID *uuid.UUID, oldValue, newValue *string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (user_id, action_type, table_name, record_id, old_value, new_value)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, actorID, action, table, recordID, oldValue, newValue)
	return err
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		SELECT a.id, a.user_id, u.username, a.action_type, a.table_name,
		       a.record_id, a.old_value, a.new_value, a.action_timestamp
		FROM audit_log a
		JOIN users u ON u.id = a.user_id
	`
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Table != "" {
		conds = append(conds, "a.table_name = "+arg(filter.Table))
	}
	if filter.Action != "" {
		conds = append(conds, "a.action_type = "+arg(filter.Action))
	}
	if filter.ActorName != "" {
		conds = append(conds, "u.username ILIKE "+arg("%"+filter.ActorName+"%"))
	}
	if filter.From != nil {
		conds = append(conds, "a.action_timestamp::date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "a.action_timestamp::date <= "+arg(*filter.To))
	}
	if filter.Search != "" {
		term := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(`(a.old_value ILIKE %[1]s OR a.new_value ILIKE %[1]s OR
			u.username ILIKE %[1]s OR a.table_name ILIKE %[1]s OR a.action_type ILIKE %[1]s)`, term))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.action_timestamp DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.Table,
			&e.RecordID, &e.OldValue, &e.NewValue, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

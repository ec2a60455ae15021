package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityLog is a record in the activity_logs collection.
type ActivityLog struct {
	ID       string         `json:"id"`
	UserID   string         `json:"userId,omitempty"`
	StoreID  string         `json:"storeId,omitempty"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// ActivityFilter narrows ActivityLogger.List. StoreIDs, when non-nil,
// restricts results to those stores.
type ActivityFilter struct {
	StoreID  string
	StoreIDs []string
	Entity   string
	EntityID string
	Action   string
	UserID   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// ActivityLogger writes records into activity_logs.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the log entry.
func (l *ActivityLogger) Record(ctx context.Context, log ActivityLog) error {
	if l == nil {
		return errors.New("activity logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("activity log requires action/entity/entity_id")
	}
	if log.UserID == "" {
		log.UserID = ActorID(ctx)
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO activity_logs (id, user_id, store_id, action, entity, entity_id, meta, occurred_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)`,
		uuid.NewString(), log.UserID, log.StoreID, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}

// List pages activity logs, newest first.
func (l *ActivityLogger) List(ctx context.Context, filter ActivityFilter) ([]ActivityLog, int, error) {
	page, pageSize := NormalizePage(filter.Page, filter.PageSize, 50)
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.StoreID != "" {
		add("store_id::text = $%d", filter.StoreID)
	}
	if filter.StoreIDs != nil {
		add("store_id::text = ANY($%d)", filter.StoreIDs)
	}
	if filter.Entity != "" {
		add("entity = $%d", filter.Entity)
	}
	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.Action != "" {
		add("action = $%d", strings.ToUpper(filter.Action))
	}
	if filter.UserID != "" {
		add("user_id::text = $%d", filter.UserID)
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at < $%d", filter.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	rows, err := l.pool.Query(ctx, fmt.Sprintf(`SELECT id::text, COALESCE(user_id::text, ''), COALESCE(store_id::text, ''),
		action, entity, entity_id, meta, occurred_at FROM activity_logs%s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2), append(args, pageSize, Offset(page, pageSize))...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []ActivityLog
	for rows.Next() {
		var (
			entry ActivityLog
			meta  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.StoreID, &entry.Action, &entry.Entity, &entry.EntityID, &meta, &entry.At); err != nil {
			return nil, 0, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &entry.Meta)
		}
		logs = append(logs, entry)
	}
	return logs, total, rows.Err()
}

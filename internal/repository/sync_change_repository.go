package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/healthtrack/sync-server/internal/model"
)

// SyncChangeRepo is the append-only change log. Rows are inserted with
// a server-assigned timestamp and never updated or deleted; the seq
// auto-increment column breaks ordering ties between inserts landing
// in the same microsecond.
type SyncChangeRepo struct{ DB *sql.DB }

func NewSyncChangeRepo(db *sql.DB) *SyncChangeRepo { return &SyncChangeRepo{DB: db} }

// Append inserts one change entry and returns it with the assigned id
// and timestamp.
func (r *SyncChangeRepo) Append(ctx context.Context, userID string, dataType model.DataType, action model.ActionType, data json.RawMessage) (model.SyncChange, error) {
	change := model.SyncChange{
		ID:        uuid.NewString(),
		UserID:    userID,
		DataType:  dataType,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sync_changes (id, user_id, data_type, action, data, timestamp) VALUES (?,?,?,?,?,?)",
		change.ID, change.UserID, change.DataType, change.Action, []byte(change.Data), change.Timestamp)
	if err != nil {
		return model.SyncChange{}, err
	}
	return change, nil
}

// ListSince returns all of a user's changes strictly newer than the
// cursor, oldest first.
func (r *SyncChangeRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]model.SyncChange, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,seq,user_id,data_type,action,data,timestamp FROM sync_changes WHERE user_id=? AND timestamp>? ORDER BY timestamp ASC, seq ASC",
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]model.SyncChange, 0)
	for rows.Next() {
		var c model.SyncChange
		var data []byte
		if err := rows.Scan(&c.ID, &c.Seq, &c.UserID, &c.DataType, &c.Action, &data, &c.Timestamp); err != nil {
			return nil, err
		}
		c.Data = json.RawMessage(data)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// LastChangeAt returns the timestamp of a user's most recent change.
// The bool result is false when the user has no changes at all.
func (r *SyncChangeRepo) LastChangeAt(ctx context.Context, userID string) (time.Time, bool, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx,
		"SELECT timestamp FROM sync_changes WHERE user_id=? ORDER BY timestamp DESC, seq DESC LIMIT 1",
		userID).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/healthtrack/sync-server/internal/model"
)

// BackupRepo stores full snapshot blobs. The repo is ownership-agnostic:
// callers enforce that a backup is only read or deleted by its owner.
type BackupRepo struct{ DB *sql.DB }

func NewBackupRepo(db *sql.DB) *BackupRepo { return &BackupRepo{DB: db} }

// Create inserts a backup row. The caller supplies all derived fields
// (file name, size); only the id is assigned here.
func (r *BackupRepo) Create(ctx context.Context, b model.Backup) (model.Backup, error) {
	b.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO backups (id, user_id, file_name, file_size, device_info, version, data, created_at) VALUES (?,?,?,?,?,?,?,?)",
		b.ID, b.UserID, b.FileName, b.FileSize, b.DeviceInfo, b.Version, []byte(b.Data), b.CreatedAt)
	if err != nil {
		return model.Backup{}, err
	}
	return b, nil
}

// GetByID fetches a backup including its snapshot payload.
func (r *BackupRepo) GetByID(ctx context.Context, id string) (model.Backup, error) {
	var b model.Backup
	var data []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,file_name,file_size,device_info,version,data,created_at FROM backups WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.UserID, &b.FileName, &b.FileSize, &b.DeviceInfo, &b.Version, &data, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Backup{}, ErrNotFound
	}
	if err != nil {
		return model.Backup{}, err
	}
	b.Data = json.RawMessage(data)
	return b, nil
}

// ListByUser returns a user's backups newest first. Payloads are left
// out; list responses are metadata-only.
func (r *BackupRepo) ListByUser(ctx context.Context, userID string) ([]model.Backup, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,file_name,file_size,device_info,version,created_at FROM backups WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := make([]model.Backup, 0)
	for rows.Next() {
		var b model.Backup
		if err := rows.Scan(&b.ID, &b.UserID, &b.FileName, &b.FileSize, &b.DeviceInfo, &b.Version, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// Delete removes a backup row. Returns true if a row was removed.
func (r *BackupRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM backups WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

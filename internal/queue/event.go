// Package queue defines message payloads exchanged over the message broker
// and a best-effort publisher for them.
package queue

// ChangesSubmittedEvent is published after an incremental sync batch has
// been appended to the change log. It carries enough information for
// downstream consumers to log or trigger analytics without querying the
// primary database.
type ChangesSubmittedEvent struct {
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id,omitempty"`
	SyncedCount int    `json:"synced_count"`
	ServerTime  string `json:"server_time"`
}

// BackupCreatedEvent is published when a full backup upload is persisted.
type BackupCreatedEvent struct {
	BackupID  string `json:"backup_id"`
	UserID    string `json:"user_id"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	CreatedAt string `json:"created_at"`
}

// BackupDeletedEvent is published when a user removes one of their backups.
type BackupDeletedEvent struct {
	BackupID  string `json:"backup_id"`
	UserID    string `json:"user_id"`
	DeletedAt string `json:"deleted_at"`
}

package model

import (
	"encoding/json"
	"time"
)

// DataType classifies which piece of user data a change touches.
type DataType string

// ActionType classifies the mutation recorded by a change.
type ActionType string

const (
	DataTypeDiary       DataType = "diary"
	DataTypeSymptom     DataType = "symptom"
	DataTypeProfile     DataType = "profile"
	DataTypeAchievement DataType = "achievement"
	DataTypeReminder    DataType = "reminder"
	DataTypeSettings    DataType = "settings"
)

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// SyncChange is one immutable entry of the per-user change log stored
// in the `sync_changes` table. Rows are never updated or deleted after
// insert; ordering is by Timestamp with Seq breaking ties in insertion
// order.
//
// Fields:
//  ID        – primary key identifier (uuid).
//  Seq       – auto-increment insertion-order tiebreak.
//  UserID    – owner of the change.
//  DataType  – which data collection the change belongs to.
//  Action    – create | update | delete.
//  Data      – opaque payload matching the data type's client schema.
//  Timestamp – server-assigned time of the insert.
type SyncChange struct {
	ID        string          // sync_changes.id
	Seq       int64           // sync_changes.seq
	UserID    string          // sync_changes.user_id
	DataType  DataType        // sync_changes.data_type
	Action    ActionType      // sync_changes.action
	Data      json.RawMessage // sync_changes.data
	Timestamp time.Time       // sync_changes.timestamp
}

// LocalChanges is the set of client-side mutations carried by one
// incremental sync request. DeletedIDs carries no type information, so
// the server cannot tell what kind of item was removed.
type LocalChanges struct {
	Diaries    []json.RawMessage `json:"diaries"`
	Symptoms   []json.RawMessage `json:"symptoms"`
	Profile    json.RawMessage   `json:"profile,omitempty"`
	DeletedIDs []string          `json:"deleted_ids"`
}

// IncrementalSyncRequest is the body of POST /sync/incremental.
type IncrementalSyncRequest struct {
	LastSyncTime string       `json:"last_sync_time,omitempty"`
	LocalChanges LocalChanges `json:"local_changes"`
	DeviceID     string       `json:"device_id"`
}

// SyncConflict is a reserved extension point: the shape exists on the
// wire but the server never detects conflicts, so it is never populated.
type SyncConflict struct {
	ID               string          `json:"id"`
	DataType         string          `json:"data_type"`
	LocalData        json.RawMessage `json:"local_data"`
	ServerData       json.RawMessage `json:"server_data"`
	LocalModifiedAt  time.Time       `json:"local_modified_at"`
	ServerModifiedAt time.Time       `json:"server_modified_at"`
}

// SyncResult reports the outcome of an incremental submission.
type SyncResult struct {
	Success       bool           `json:"success"`
	SyncedCount   int            `json:"synced_count"`
	ConflictCount int            `json:"conflict_count"`
	Conflicts     []SyncConflict `json:"conflicts"`
	ServerTime    time.Time      `json:"server_time"`
}

// SyncChangesResponse partitions a page of the change log by data type.
// Profile and settings are single-valued: when several changes of that
// type fall inside the page, the latest one wins.
type SyncChangesResponse struct {
	Diaries      []json.RawMessage `json:"diaries"`
	Symptoms     []json.RawMessage `json:"symptoms"`
	Profile      json.RawMessage   `json:"profile,omitempty"`
	Achievements []json.RawMessage `json:"achievements"`
	Reminders    []json.RawMessage `json:"reminders"`
	Settings     json.RawMessage   `json:"settings,omitempty"`
	ServerTime   time.Time         `json:"server_time"`
	HasMore      bool              `json:"has_more"`
}

// SyncStatus summarizes a user's change log. PendingChanges and
// IsSyncing are fixed values: no server-side pending queue or
// long-running sync job exists.
type SyncStatus struct {
	LastSyncTime   *time.Time `json:"last_sync_time,omitempty"`
	PendingChanges int        `json:"pending_changes"`
	IsSyncing      bool       `json:"is_syncing"`
	ServerTime     time.Time  `json:"server_time"`
}

package model

import (
	"encoding/json"
	"time"
)

// Backup is a full point-in-time snapshot of a user's app state as
// stored in the `backups` table. Immutable once created; a user may
// hold any number of backups.
//
// Fields:
//  ID         – primary key identifier (uuid).
//  UserID     – owner of the backup.
//  FileName   – derived from the server-side upload timestamp.
//  FileSize   – byte length of the serialized payload.
//  DeviceInfo – optional client-supplied device string.
//  Version    – client-controlled version string.
//  Data       – full structured snapshot payload.
//  CreatedAt  – timestamp of creation.
type Backup struct {
	ID         string          // backups.id
	UserID     string          // backups.user_id
	FileName   string          // backups.file_name
	FileSize   int64           // backups.file_size
	DeviceInfo string          // backups.device_info
	Version    string          // backups.version
	Data       json.RawMessage // backups.data
	CreatedAt  time.Time       // backups.created_at
}

// BackupData is the structured snapshot carried inside a backup
// payload. Individual collections stay opaque to the server.
type BackupData struct {
	Diaries  []json.RawMessage `json:"diaries"`
	Symptoms []json.RawMessage `json:"symptoms"`
	Profile  json.RawMessage   `json:"profile,omitempty"`
	Settings json.RawMessage   `json:"settings,omitempty"`
	Version  string            `json:"version,omitempty"`
}

// BackupResponse is the metadata-only wire shape returned by upload and
// list operations. The snapshot payload itself is excluded.
type BackupResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	DeviceInfo string    `json:"device_info,omitempty"`
	Version    string    `json:"version,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BackupDataResponse is the full download shape: the snapshot
// collections plus version and creation time.
type BackupDataResponse struct {
	Diaries   []json.RawMessage `json:"diaries"`
	Symptoms  []json.RawMessage `json:"symptoms"`
	Profile   json.RawMessage   `json:"profile,omitempty"`
	Settings  json.RawMessage   `json:"settings,omitempty"`
	Version   string            `json:"version,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Response maps a stored backup to its metadata summary.
func (b Backup) Response() BackupResponse {
	return BackupResponse{
		ID:         b.ID,
		FileName:   b.FileName,
		FileSize:   b.FileSize,
		DeviceInfo: b.DeviceInfo,
		Version:    b.Version,
		CreatedAt:  b.CreatedAt,
	}
}

// DataResponse maps a stored backup to its full download shape. A
// payload that fails to decode yields empty collections rather than an
// error; the stored blob is client-controlled.
func (b Backup) DataResponse() BackupDataResponse {
	var data BackupData
	_ = json.Unmarshal(b.Data, &data)
	if data.Diaries == nil {
		data.Diaries = []json.RawMessage{}
	}
	if data.Symptoms == nil {
		data.Symptoms = []json.RawMessage{}
	}
	return BackupDataResponse{
		Diaries:   data.Diaries,
		Symptoms:  data.Symptoms,
		Profile:   data.Profile,
		Settings:  data.Settings,
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
	}
}

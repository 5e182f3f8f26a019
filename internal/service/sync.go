package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/queue"
)

// ChangeStore is the append-only change log.
type ChangeStore interface {
	Append(ctx context.Context, userID string, dataType model.DataType, action model.ActionType, data json.RawMessage) (model.SyncChange, error)
	ListSince(ctx context.Context, userID string, since time.Time) ([]model.SyncChange, error)
	LastChangeAt(ctx context.Context, userID string) (time.Time, bool, error)
}

// BackupStore persists full snapshot blobs.
type BackupStore interface {
	Create(ctx context.Context, b model.Backup) (model.Backup, error)
	GetByID(ctx context.Context, id string) (model.Backup, error)
	ListByUser(ctx context.Context, userID string) ([]model.Backup, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// lastChangeCacheTTL bounds staleness of the cached last-change
// timestamp; the cache is rewritten on every append anyway.
const lastChangeCacheTTL = 24 * time.Hour

// SyncService reconciles incremental client change batches against the
// change log and manages full backups. The log is the source of truth;
// reconciliation is query-side (filter by timestamp), so correctness
// depends on every write going through Append and on clients tracking
// their own last-seen timestamp as the cursor.
type SyncService struct {
	changes ChangeStore
	backups BackupStore
	cache   *redis.Client // nil when Redis is unavailable
}

func NewSyncService(changes ChangeStore, backups BackupStore, cache *redis.Client) *SyncService {
	return &SyncService{changes: changes, backups: backups, cache: cache}
}

// SubmitIncremental appends a client's local changes to the log. Diary
// and symptom entries are logged as updates, the profile (when present)
// as a single update. No conflict detection is performed; the conflict
// fields in the result are a reserved extension point and stay empty.
func (s *SyncService) SubmitIncremental(ctx context.Context, userID string, req model.IncrementalSyncRequest) (model.SyncResult, error) {
	synced := 0
	var lastAt time.Time

	for _, diary := range req.LocalChanges.Diaries {
		c, err := s.changes.Append(ctx, userID, model.DataTypeDiary, model.ActionUpdate, diary)
		if err != nil {
			return model.SyncResult{}, err
		}
		lastAt = c.Timestamp
		synced++
	}
	for _, symptom := range req.LocalChanges.Symptoms {
		c, err := s.changes.Append(ctx, userID, model.DataTypeSymptom, model.ActionUpdate, symptom)
		if err != nil {
			return model.SyncResult{}, err
		}
		lastAt = c.Timestamp
		synced++
	}
	if len(req.LocalChanges.Profile) > 0 {
		c, err := s.changes.Append(ctx, userID, model.DataTypeProfile, model.ActionUpdate, req.LocalChanges.Profile)
		if err != nil {
			return model.SyncResult{}, err
		}
		lastAt = c.Timestamp
		synced++
	}
	// TODO: deleted_ids carries no type information, so deletions are
	// logged as diary changes even when a symptom was removed; needs a
	// typed deletion list in the client wire format first.
	for _, deletedID := range req.LocalChanges.DeletedIDs {
		data, err := json.Marshal(struct {
			ID string `json:"id"`
		}{ID: deletedID})
		if err != nil {
			return model.SyncResult{}, err
		}
		c, err := s.changes.Append(ctx, userID, model.DataTypeDiary, model.ActionDelete, data)
		if err != nil {
			return model.SyncResult{}, err
		}
		lastAt = c.Timestamp
		synced++
	}

	now := time.Now().UTC()
	if synced > 0 {
		s.cacheLastChange(ctx, userID, lastAt)
		_ = queue.PublishChangesSubmitted(ctx, queue.ChangesSubmittedEvent{
			UserID:      userID,
			DeviceID:    req.DeviceID,
			SyncedCount: synced,
			ServerTime:  now.Format(time.RFC3339Nano),
		})
	}

	return model.SyncResult{
		Success:       true,
		SyncedCount:   synced,
		ConflictCount: 0,
		Conflicts:     []model.SyncConflict{},
		ServerTime:    now,
	}, nil
}

// ChangesSince returns the user's changes strictly newer than the
// cursor, partitioned by data type. The full since-set is fetched first
// and has_more is computed against it before truncation to limit.
func (s *SyncService) ChangesSince(ctx context.Context, userID string, since time.Time, limit int) (model.SyncChangesResponse, error) {
	changes, err := s.changes.ListSince(ctx, userID, since)
	if err != nil {
		return model.SyncChangesResponse{}, err
	}

	resp := model.SyncChangesResponse{
		Diaries:      []json.RawMessage{},
		Symptoms:     []json.RawMessage{},
		Achievements: []json.RawMessage{},
		Reminders:    []json.RawMessage{},
		ServerTime:   time.Now().UTC(),
		HasMore:      len(changes) > limit,
	}

	page := changes
	if len(page) > limit {
		page = page[:limit]
	}
	for _, change := range page {
		switch change.DataType {
		case model.DataTypeDiary:
			resp.Diaries = append(resp.Diaries, change.Data)
		case model.DataTypeSymptom:
			resp.Symptoms = append(resp.Symptoms, change.Data)
		case model.DataTypeProfile:
			resp.Profile = change.Data // last wins
		case model.DataTypeAchievement:
			resp.Achievements = append(resp.Achievements, change.Data)
		case model.DataTypeReminder:
			resp.Reminders = append(resp.Reminders, change.Data)
		case model.DataTypeSettings:
			resp.Settings = change.Data // last wins
		}
	}
	return resp, nil
}

// Status reports the timestamp of the user's most recent change. The
// cached value is preferred; a miss falls through to the log and
// repopulates the cache. Pending count and syncing flag are fixed:
// no server-side pending queue or long-running sync job exists.
func (s *SyncService) Status(ctx context.Context, userID string) (model.SyncStatus, error) {
	status := model.SyncStatus{
		PendingChanges: 0,
		IsSyncing:      false,
		ServerTime:     time.Now().UTC(),
	}

	if ts, ok := s.cachedLastChange(ctx, userID); ok {
		status.LastSyncTime = &ts
		return status, nil
	}

	ts, ok, err := s.changes.LastChangeAt(ctx, userID)
	if err != nil {
		return model.SyncStatus{}, err
	}
	if ok {
		status.LastSyncTime = &ts
		s.cacheLastChange(ctx, userID, ts)
	}
	return status, nil
}

// CreateBackup persists a full snapshot. File size is the byte length
// of the serialized payload and the file name derives from the server
// upload time; the version comes from the payload itself when present.
func (s *SyncService) CreateBackup(ctx context.Context, userID string, payload json.RawMessage, deviceInfo string) (model.Backup, error) {
	now := time.Now().UTC()

	version := "1.0.0"
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(payload, &meta); err == nil && meta.Version != "" {
		version = meta.Version
	}

	backup, err := s.backups.Create(ctx, model.Backup{
		UserID:     userID,
		FileName:   fmt.Sprintf("backup_%s.json", now.Format(time.RFC3339)),
		FileSize:   int64(len(payload)),
		DeviceInfo: deviceInfo,
		Version:    version,
		Data:       payload,
		CreatedAt:  now,
	})
	if err != nil {
		return model.Backup{}, err
	}

	_ = queue.PublishBackupCreated(ctx, queue.BackupCreatedEvent{
		BackupID:  backup.ID,
		UserID:    backup.UserID,
		FileName:  backup.FileName,
		FileSize:  backup.FileSize,
		CreatedAt: backup.CreatedAt.Format(time.RFC3339Nano),
	})
	return backup, nil
}

// Backup fetches one backup by id. Ownership is checked by the caller:
// the store is ownership-agnostic.
func (s *SyncService) Backup(ctx context.Context, id string) (model.Backup, error) {
	return s.backups.GetByID(ctx, id)
}

// Backups lists a user's backups newest first.
func (s *SyncService) Backups(ctx context.Context, userID string) ([]model.Backup, error) {
	return s.backups.ListByUser(ctx, userID)
}

// DeleteBackup removes a backup whose ownership the caller has already
// verified. Returns true if a row was removed.
func (s *SyncService) DeleteBackup(ctx context.Context, b model.Backup) (bool, error) {
	deleted, err := s.backups.Delete(ctx, b.ID)
	if err != nil || !deleted {
		return deleted, err
	}
	_ = queue.PublishBackupDeleted(ctx, queue.BackupDeletedEvent{
		BackupID:  b.ID,
		UserID:    b.UserID,
		DeletedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	return true, nil
}

func (s *SyncService) lastChangeKey(userID string) string {
	return "sync:last:" + userID
}

func (s *SyncService) cacheLastChange(ctx context.Context, userID string, ts time.Time) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, s.lastChangeKey(userID), ts.UTC().Format(time.RFC3339Nano), lastChangeCacheTTL).Err()
}

func (s *SyncService) cachedLastChange(ctx context.Context, userID string) (time.Time, bool) {
	if s.cache == nil {
		return time.Time{}, false
	}
	val, err := s.cache.Get(ctx, s.lastChangeKey(userID)).Result()
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

// Insert writes a blob and its item row in a single transaction,
// returning the new item's id. A failure at either step leaves the
// store unchanged.
func (s *Store) Insert(item domain.Item, blob []byte) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO blobs (data) VALUES (?)`, blob)
	if err != nil {
		return 0, fmt.Errorf("store: insert blob: %w", err)
	}
	blobID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert blob: %w", err)
	}

	copyCount := item.CopyCount
	if copyCount == 0 {
		copyCount = 1
	}

	res, err = tx.Exec(
		`INSERT INTO items (timestamp, data_type, is_sensitive, is_encrypted, preview_text, data_size, blob_ref, metadata, copy_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Timestamp.Unix(), string(item.DataType), boolToInt(item.IsSensitive), boolToInt(item.IsEncrypted),
		item.PreviewText, item.DataSize, blobID, item.Metadata, copyCount,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert item: %w", err)
	}
	itemID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	return itemID, nil
}

// Dedupe finds every live item matching (previewText, dataType), removes
// them and their blobs, and reports how many were removed along with the
// highest copy_count among them. A null previewText always returns
// (0, 0): null comparisons are unreliable, so nothing is treated as a
// duplicate of a row with no preview.
func (s *Store) Dedupe(previewText *string, dataType domain.DataType) (removed int, maxPrevCount int, err error) {
	if previewText == nil {
		return 0, 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("store: dedupe: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id, blob_ref, copy_count FROM items WHERE preview_text = ? AND data_type = ?`,
		*previewText, string(dataType),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("store: dedupe: %w", err)
	}

	type match struct {
		id, blobRef int64
		copyCount   int
	}
	var matches []match
	for rows.Next() {
		var m match
		if err := rows.Scan(&m.id, &m.blobRef, &m.copyCount); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("store: dedupe: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, fmt.Errorf("store: dedupe: %w", err)
	}
	rows.Close()

	for _, m := range matches {
		if m.copyCount > maxPrevCount {
			maxPrevCount = m.copyCount
		}
		if _, err := tx.Exec(`DELETE FROM items WHERE id = ?`, m.id); err != nil {
			return 0, 0, fmt.Errorf("store: dedupe: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM blobs WHERE id = ?`, m.blobRef); err != nil {
			return 0, 0, fmt.Errorf("store: dedupe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("store: dedupe: %w", err)
	}
	return len(matches), maxPrevCount, nil
}

// SoftDeleteAll copies every live (item, blob) pair into the trash
// tables with deleted_at = now, physically duplicating blob bytes so
// trash rows remain readable once the live tables are cleared, then
// clears the live tables. Returns the number of items moved.
func (s *Store) SoftDeleteAll(now time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT i.id, i.timestamp, i.data_type, i.is_sensitive, i.is_encrypted,
		        i.preview_text, i.data_size, i.metadata, b.data
		 FROM items i JOIN blobs b ON b.id = i.blob_ref`,
	)
	if err != nil {
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}

	type row struct {
		id                       int64
		ts                       int64
		dataType                 string
		isSensitive, isEncrypted int
		previewText, metadata    sql.NullString
		dataSize                 int64
		blob                     []byte
	}
	var live []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.ts, &r.dataType, &r.isSensitive, &r.isEncrypted,
			&r.previewText, &r.dataSize, &r.metadata, &r.blob); err != nil {
			rows.Close()
			return 0, fmt.Errorf("store: soft_delete_all: %w", err)
		}
		live = append(live, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}
	rows.Close()

	deletedAt := now.Unix()
	for _, r := range live {
		res, err := tx.Exec(`INSERT INTO deleted_blobs (data) VALUES (?)`, r.blob)
		if err != nil {
			return 0, fmt.Errorf("store: soft_delete_all: %w", err)
		}
		deletedBlobID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("store: soft_delete_all: %w", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO deleted_items (original_id, timestamp, deleted_at, data_type, is_sensitive, is_encrypted, preview_text, data_size, deleted_blob_ref, metadata)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.ts, deletedAt, r.dataType, r.isSensitive, r.isEncrypted, r.previewText, r.dataSize, deletedBlobID, r.metadata,
		); err != nil {
			return 0, fmt.Errorf("store: soft_delete_all: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM blobs`); err != nil {
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: soft_delete_all: %w", err)
	}
	return len(live), nil
}

// PurgeDeleted physically removes trash rows (and their blobs) whose
// deleted_at is older than now minus maxAge.
func (s *Store) PurgeDeleted(now time.Time, maxAge time.Duration) (int, error) {
	cutoff := now.Add(-maxAge).Unix()
	return s.hardDeleteOlder(
		`SELECT id, deleted_blob_ref FROM deleted_items WHERE deleted_at < ?`,
		`DELETE FROM deleted_items WHERE deleted_at < ?`,
		`DELETE FROM deleted_blobs WHERE id = ?`,
		cutoff,
	)
}

// CleanupOld physically removes live rows (and their blobs) older than
// now minus retentionDays. Unlike SoftDeleteAll this is a hard delete.
func (s *Store) CleanupOld(now time.Time, retentionDays int) (int, error) {
	cutoff := now.Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()
	return s.hardDeleteOlder(
		`SELECT id, blob_ref FROM items WHERE timestamp < ?`,
		`DELETE FROM items WHERE timestamp < ?`,
		`DELETE FROM blobs WHERE id = ?`,
		cutoff,
	)
}

func (s *Store) hardDeleteOlder(selectQuery, deleteRowsQuery, deleteBlobQuery string, cutoff int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(selectQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	var blobRefs []int64
	for rows.Next() {
		var id, blobRef int64
		if err := rows.Scan(&id, &blobRef); err != nil {
			rows.Close()
			return 0, fmt.Errorf("store: hard delete: %w", err)
		}
		blobRefs = append(blobRefs, blobRef)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	rows.Close()

	if _, err := tx.Exec(deleteRowsQuery, cutoff); err != nil {
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	for _, ref := range blobRefs {
		if _, err := tx.Exec(deleteBlobQuery, ref); err != nil {
			return 0, fmt.Errorf("store: hard delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	return len(blobRefs), nil
}

// GetRecent returns up to limit live items ordered by timestamp
// descending.
func (s *Store) GetRecent(limit int) ([]domain.Item, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, data_type, is_sensitive, is_encrypted, preview_text, data_size, blob_ref, metadata, copy_count
		 FROM items ORDER BY timestamp DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get_recent: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var (
			it                       domain.Item
			ts                       int64
			dataType                 string
			isSensitive, isEncrypted int
			previewText, metadata    sql.NullString
		)
		if err := rows.Scan(&it.ID, &ts, &dataType, &isSensitive, &isEncrypted,
			&previewText, &it.DataSize, &it.BlobRef, &metadata, &it.CopyCount); err != nil {
			return nil, fmt.Errorf("store: get_recent: %w", err)
		}
		it.Timestamp = time.Unix(ts, 0).UTC()
		it.DataType = domain.DataType(dataType)
		it.IsSensitive = isSensitive != 0
		it.IsEncrypted = isEncrypted != 0
		if previewText.Valid {
			p := previewText.String
			it.PreviewText = &p
		}
		if metadata.Valid {
			m := metadata.String
			it.Metadata = &m
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetBlob returns the raw stored bytes for a blob reference — the
// envelope if the owning row is encrypted, plaintext otherwise.
// Callers are responsible for decryption.
func (s *Store) GetBlob(blobRef int64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM blobs WHERE id = ?`, blobRef).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: blob %d not found", blobRef)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get_blob: %w", err)
	}
	return data, nil
}

// CountItems returns the number of live items.
func (s *Store) CountItems() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

// DBSizeBytes reports the on-disk size of the database file via
// SQLite's page accounting.
func (s *Store) DBSizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, err
	}
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, err
	}
	return pageCount * pageSize, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

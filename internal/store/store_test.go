package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clipboard.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func preview(s string) *string { return &s }

func TestOpenSeedsConfigDefaults(t *testing.T) {
	s := openTestStore(t)

	v, err := s.ConfigValue("retention_days")
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	v, err = s.ConfigValue("polling_interval_ms")
	require.NoError(t, err)
	assert.Equal(t, "500", v)

	v, err = s.ConfigValue("schema_version")
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)
}

func TestInsertAndGetRecent(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Insert(domain.Item{
		Timestamp:   time.Now(),
		DataType:    domain.DataTypeText,
		PreviewText: preview("hello"),
		DataSize:    5,
		CopyCount:   1,
	}, []byte("hello"))
	require.NoError(t, err)
	assert.Positive(t, id)

	items, err := s.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, int64(5), items[0].DataSize)

	blob, err := s.GetBlob(items[0].BlobRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), blob)
}

func TestDedupeRemovesMatchingItemsAndTracksMaxCopyCount(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Insert(domain.Item{
		Timestamp: time.Now(), DataType: domain.DataTypeText,
		PreviewText: preview("same"), DataSize: 4, CopyCount: 2,
	}, []byte("same"))
	require.NoError(t, err)

	removed, maxPrev, err := s.Dedupe(preview("same"), domain.DataTypeText)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, maxPrev)

	n, err := s.CountItems()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDedupeWithNilPreviewIsNoop(t *testing.T) {
	s := openTestStore(t)
	removed, maxPrev, err := s.Dedupe(nil, domain.DataTypeText)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 0, maxPrev)
}

func TestSoftDeleteAllMovesRowsToTrash(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Insert(domain.Item{
		Timestamp: time.Now(), DataType: domain.DataTypeText,
		PreviewText: preview("a"), DataSize: 1, CopyCount: 1,
	}, []byte("a"))
	require.NoError(t, err)
	_, err = s.Insert(domain.Item{
		Timestamp: time.Now(), DataType: domain.DataTypeText,
		PreviewText: preview("b"), DataSize: 1, CopyCount: 1,
	}, []byte("b"))
	require.NoError(t, err)

	moved, err := s.SoftDeleteAll(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	n, err := s.CountItems()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var trashCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM deleted_items`).Scan(&trashCount))
	assert.Equal(t, 2, trashCount)
}

func TestPurgeDeletedRemovesOldTrash(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Insert(domain.Item{
		Timestamp: time.Now(), DataType: domain.DataTypeText,
		PreviewText: preview("a"), DataSize: 1, CopyCount: 1,
	}, []byte("a"))
	require.NoError(t, err)

	_, err = s.SoftDeleteAll(time.Now())
	require.NoError(t, err)

	purged, err := s.PurgeDeleted(time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	var trashCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM deleted_items`).Scan(&trashCount))
	assert.Equal(t, 0, trashCount)

	var blobCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM deleted_blobs`).Scan(&blobCount))
	assert.Equal(t, 0, blobCount, "no deleted_blob may remain once its deleted_item is purged")
}

func TestCleanupOldHardDeletesPastRetention(t *testing.T) {
	s := openTestStore(t)

	old := time.Now().Add(-10 * 24 * time.Hour)
	_, err := s.Insert(domain.Item{
		Timestamp: old, DataType: domain.DataTypeText,
		PreviewText: preview("ancient"), DataSize: 1, CopyCount: 1,
	}, []byte("x"))
	require.NoError(t, err)

	removed, err := s.CleanupOld(time.Now(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := s.CountItems()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInsertPreservesBinaryPayloadExactly(t *testing.T) {
	s := openTestStore(t)
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	id, err := s.Insert(domain.Item{
		Timestamp: time.Now(), DataType: domain.DataTypeImage,
		PreviewText: preview("1x1 image"), DataSize: int64(len(payload)), CopyCount: 1,
	}, payload)
	require.NoError(t, err)

	items, err := s.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)

	blob, err := s.GetBlob(items[0].BlobRef)
	require.NoError(t, err)
	assert.Equal(t, payload, blob)
}

func TestMigrationAddsCopyCountColumnOnLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Simulate a pre-migration database: open once to create the
	// connection and base tables, then drop and recreate items without
	// copy_count before re-opening through Open.
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(`DROP TABLE items`)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		data_type TEXT NOT NULL,
		is_sensitive INTEGER NOT NULL DEFAULT 0,
		is_encrypted INTEGER NOT NULL DEFAULT 0,
		preview_text TEXT,
		data_size INTEGER NOT NULL,
		blob_ref INTEGER NOT NULL REFERENCES blobs(id),
		metadata TEXT
	)`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.hasColumn("items", "copy_count")
	require.NoError(t, err)
	assert.True(t, has)
}

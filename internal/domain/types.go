// Package domain holds the data types shared across clipkeepd's pipeline:
// the clipboard Item/Blob model, the classifier's intermediate
// representation, and the monitor's change events.
package domain

import "time"

// DataType identifies the kind of content a clipboard entry carries.
type DataType string

const (
	DataTypeText  DataType = "text"
	DataTypeURL   DataType = "url"
	DataTypeRTF   DataType = "rtf"
	DataTypeHTML  DataType = "html"
	DataTypeImage DataType = "image"
	DataTypeFile  DataType = "file"
)

// Item is one logical clipboard entry as persisted by the store.
type Item struct {
	ID          int64
	Timestamp   time.Time
	DataType    DataType
	IsSensitive bool
	IsEncrypted bool
	PreviewText *string
	DataSize    int64
	BlobRef     int64
	Metadata    *string
	CopyCount   int
}

// Blob holds the raw bytes associated with an Item: plaintext if
// IsEncrypted is false on the owning Item, an encryption envelope
// otherwise.
type Blob struct {
	ID   int64
	Data []byte
}

// DeletedItem mirrors Item in the trash shadow table, tracking the
// original id and the moment it was soft-deleted.
type DeletedItem struct {
	ID          int64
	OriginalID  int64
	Timestamp   time.Time
	DeletedAt   time.Time
	DataType    DataType
	IsSensitive bool
	IsEncrypted bool
	PreviewText *string
	DataSize    int64
	BlobRef     int64
	Metadata    *string
}

// DeletedBlob mirrors Blob in the trash shadow table.
type DeletedBlob struct {
	ID   int64
	Data []byte
}

// Processed is the classifier's output for one clipboard payload, ready
// to be optionally encrypted and handed to the store.
type Processed struct {
	DataType    DataType
	Blob        []byte
	PreviewText *string
	IsSensitive bool
	Metadata    *string
}

// ChangeEvent describes one observed transition of the host clipboard.
type ChangeEvent struct {
	Counter   int64
	Types     []string
	Timestamp time.Time
}

// Package models defines the workspace entities: board columns, cards
// (tasks/ideas), documents, document folders, and the full snapshot tuple
// that the cache and the full-snapshot sync path operate on.
//
// All identifiers are opaque strings generated on the client, so the UI is
// responsive before any network round trip. RemoteRecordID is assigned by
// the remote table service on the first successful create; until then the
// entity has never been persisted remotely.
package models

import "github.com/google/uuid"

// ColumnKind distinguishes the task board from the idea board. Columns of
// both kinds share one shape and one logical-table schema.
type ColumnKind string

const (
	ColumnKindTask ColumnKind = "task"
	ColumnKindIdea ColumnKind = "idea"
)

// Column is a board column. Display order equals slice order in the
// snapshot; SortOrder is written alongside each record on sync so order
// survives independent of the table's internal primary key.
type Column struct {
	ID             string     `json:"id"`
	RemoteRecordID string     `json:"remoteRecordId,omitempty"`
	Kind           ColumnKind `json:"kind"`
	Title          string     `json:"title"`
	IsEncrypted    bool       `json:"isEncrypted"`
	// EncryptionVerifier holds "base64(salt):base64(SHA256(salt||password))"
	// and is used only to test a candidate password, never to derive keys.
	EncryptionVerifier string `json:"encryptionVerifier,omitempty"`
}

// Card is a task or an idea; the two share one shape. Kind is inherited
// from the owning column. A card belongs to exactly one column and is
// pruned when the column is deleted.
type Card struct {
	ID             string `json:"id"`
	RemoteRecordID string `json:"remoteRecordId,omitempty"`
	ColumnID       string `json:"columnId"`
	Content        string `json:"content"`
	Completed      bool   `json:"completed,omitempty"`
	IsAIGenerated  bool   `json:"isAiGenerated,omitempty"`
}

// Folder groups documents. FolderID == "" on a document means root level.
type Folder struct {
	ID                 string `json:"id"`
	RemoteRecordID     string `json:"remoteRecordId,omitempty"`
	Title              string `json:"title"`
	IsEncrypted        bool   `json:"isEncrypted"`
	EncryptionVerifier string `json:"encryptionVerifier,omitempty"`
}

// Document is a text document, optionally inside a folder and optionally
// individually encrypted. Timestamps are unix milliseconds.
type Document struct {
	ID                 string `json:"id"`
	RemoteRecordID     string `json:"remoteRecordId,omitempty"`
	FolderID           string `json:"folderId,omitempty"`
	Title              string `json:"title"`
	Content            string `json:"content"`
	CreatedAt          int64  `json:"createdAt"`
	UpdatedAt          int64  `json:"updatedAt"`
	IsEncrypted        bool   `json:"isEncrypted,omitempty"`
	EncryptionVerifier string `json:"encryptionVerifier,omitempty"`
}

// Credential is one row of the remote users table.
type Credential struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// NewID returns a fresh client-generated entity id.
func NewID() string {
	return uuid.NewString()
}

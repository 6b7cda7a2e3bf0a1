package gate

import (
	"context"

	"qingplan/internal/client/models"
)

// UnlockColumn runs the unlock protocol for a board column: verify the
// candidate password against the column's verifier, remember it, then
// decrypt the column title and every currently loaded card of that column
// in place. Decryption is best-effort; a card that fails to decrypt (e.g., a
// corrupted blob) stays tagged rather than aborting the whole unlock.
func (s *Session) UnlockColumn(ctx context.Context, snap *models.Snapshot, columnID, password string) bool {
	col, ok := snap.ColumnByID(columnID)
	if !ok || !col.IsEncrypted {
		return false
	}
	if !s.Unlock(columnID, password, col.EncryptionVerifier) {
		return false
	}

	col.Title = s.InboundContent(ctx, columnID, col.Title)
	for i := range snap.Tasks {
		if snap.Tasks[i].ColumnID == columnID {
			snap.Tasks[i].Content = s.InboundContent(ctx, columnID, snap.Tasks[i].Content)
		}
	}
	for i := range snap.Ideas {
		if snap.Ideas[i].ColumnID == columnID {
			snap.Ideas[i].Content = s.InboundContent(ctx, columnID, snap.Ideas[i].Content)
		}
	}
	return true
}

// UnlockFolder is UnlockColumn for a document folder: on success the folder
// title plus every loaded document in the folder is decrypted in place.
func (s *Session) UnlockFolder(ctx context.Context, snap *models.Snapshot, folderID, password string) bool {
	folder, ok := snap.FolderByID(folderID)
	if !ok || !folder.IsEncrypted {
		return false
	}
	if !s.Unlock(folderID, password, folder.EncryptionVerifier) {
		return false
	}

	folder.Title = s.InboundContent(ctx, folderID, folder.Title)
	for i := range snap.Documents {
		if snap.Documents[i].FolderID == folderID {
			d := &snap.Documents[i]
			d.Title = s.InboundContent(ctx, folderID, d.Title)
			d.Content = s.InboundContent(ctx, folderID, d.Content)
		}
	}
	return true
}

// UnlockDocument unlocks an individually encrypted document.
func (s *Session) UnlockDocument(ctx context.Context, snap *models.Snapshot, docID, password string) bool {
	for i := range snap.Documents {
		d := &snap.Documents[i]
		if d.ID != docID {
			continue
		}
		if !d.IsEncrypted || !s.Unlock(docID, password, d.EncryptionVerifier) {
			return false
		}
		d.Title = s.InboundContent(ctx, docID, d.Title)
		d.Content = s.InboundContent(ctx, docID, d.Content)
		return true
	}
	return false
}

// EncryptSnapshot is the persistence pass before a snapshot is written to
// the durable cache: every plaintext field of an encrypted owner whose
// password is known this session is re-encrypted in place, so the cache
// holds the same tagged blobs as the remote store and a restarted process
// (with an empty password map) cannot leak or push plaintext. Fields of an
// owner whose password is unknown were never decrypted and stay as-is.
func (s *Session) EncryptSnapshot(ctx context.Context, snap *models.Snapshot) {
	encryptColumns := func(cols []models.Column) {
		for i := range cols {
			if cols[i].IsEncrypted {
				cols[i].Title = s.sealField(ctx, cols[i].ID, cols[i].Title)
			}
		}
	}
	encryptCards := func(cards []models.Card) {
		for i := range cards {
			if col, ok := snap.ColumnByID(cards[i].ColumnID); ok && col.IsEncrypted {
				cards[i].Content = s.sealField(ctx, col.ID, cards[i].Content)
			}
		}
	}

	encryptColumns(snap.Columns)
	encryptColumns(snap.IdeaColumns)
	encryptCards(snap.Tasks)
	encryptCards(snap.Ideas)

	for i := range snap.DocumentFolders {
		f := &snap.DocumentFolders[i]
		if f.IsEncrypted {
			f.Title = s.sealField(ctx, f.ID, f.Title)
		}
	}
	for i := range snap.Documents {
		d := &snap.Documents[i]
		switch {
		case d.IsEncrypted:
			d.Title = s.sealField(ctx, d.ID, d.Title)
			d.Content = s.sealField(ctx, d.ID, d.Content)
		case d.FolderID != "":
			if f, ok := snap.FolderByID(d.FolderID); ok && f.IsEncrypted {
				d.Title = s.sealField(ctx, f.ID, d.Title)
				d.Content = s.sealField(ctx, f.ID, d.Content)
			}
		}
	}
}

// DecryptSnapshot is the inbound pass after a pull: every tagged blob whose
// owner's password is known this session is decrypted in place; everything
// else stays tagged for the UI to render as locked.
func (s *Session) DecryptSnapshot(ctx context.Context, snap *models.Snapshot) {
	decryptColumns := func(cols []models.Column) {
		for i := range cols {
			if cols[i].IsEncrypted {
				cols[i].Title = s.InboundContent(ctx, cols[i].ID, cols[i].Title)
			}
		}
	}
	decryptCards := func(cards []models.Card) {
		for i := range cards {
			if col, ok := snap.ColumnByID(cards[i].ColumnID); ok && col.IsEncrypted {
				cards[i].Content = s.InboundContent(ctx, col.ID, cards[i].Content)
			}
		}
	}

	decryptColumns(snap.Columns)
	decryptColumns(snap.IdeaColumns)
	decryptCards(snap.Tasks)
	decryptCards(snap.Ideas)

	for i := range snap.DocumentFolders {
		f := &snap.DocumentFolders[i]
		if f.IsEncrypted {
			f.Title = s.InboundContent(ctx, f.ID, f.Title)
		}
	}
	for i := range snap.Documents {
		d := &snap.Documents[i]
		switch {
		case d.IsEncrypted:
			d.Title = s.InboundContent(ctx, d.ID, d.Title)
			d.Content = s.InboundContent(ctx, d.ID, d.Content)
		case d.FolderID != "":
			if f, ok := snap.FolderByID(d.FolderID); ok && f.IsEncrypted {
				d.Title = s.InboundContent(ctx, f.ID, d.Title)
				d.Content = s.InboundContent(ctx, f.ID, d.Content)
			}
		}
	}
}

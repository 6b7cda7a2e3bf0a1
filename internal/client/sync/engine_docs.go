package sync

import (
	"context"

	"qingplan/internal/client/models"
	"qingplan/internal/common"
	"qingplan/internal/cryptox"
)

// Document and folder mutations, same local-first shape as the board ones.

// AddFolder creates a document folder, optionally encrypted from birth.
func (e *Engine) AddFolder(ctx context.Context, title, password string) (models.Folder, error) {
	folder := models.Folder{
		ID:    models.NewID(),
		Title: title,
	}
	if password != "" {
		folder.IsEncrypted = true
		folder.EncryptionVerifier = cryptox.MakeVerifier(password)
		e.session.Unlock(folder.ID, password, folder.EncryptionVerifier)
	}

	var sortOrder int
	e.mutate(ctx, func(s *models.Snapshot) {
		s.DocumentFolders = append(s.DocumentFolders, folder)
		sortOrder = len(s.DocumentFolders) - 1
	})

	fields, err := e.outboundFolder(ctx, folder, sortOrder, 0)
	if err != nil {
		return folder, err
	}
	return folder, e.runOps(ctx, []Operation{{
		Kind:     OpCreate,
		Table:    models.TableDocumentFolders,
		EntityID: folder.ID,
		Fields:   fields,
	}})
}

// RenameFolder changes a folder title locally and schedules a debounced
// push.
func (e *Engine) RenameFolder(ctx context.Context, folderID, title string) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		if f, ok := s.FolderByID(folderID); ok {
			f.Title = title
			found = true
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.pushLater(folderID, func(ctx context.Context) (Operation, bool) {
		snap := e.Snapshot()
		for i := range snap.DocumentFolders {
			if snap.DocumentFolders[i].ID != folderID {
				continue
			}
			fields, err := e.outboundFolder(ctx, snap.DocumentFolders[i], i, 0)
			if err != nil {
				e.log.Warn(ctx, "outbound transform failed", "folder", folderID, "err", err)
				return Operation{}, false
			}
			return Operation{
				Kind:     OpUpdate,
				Table:    models.TableDocumentFolders,
				EntityID: folderID,
				RecordID: snap.DocumentFolders[i].RemoteRecordID,
				Fields:   fields,
			}, true
		}
		return Operation{}, false
	})
	return nil
}

// DeleteFolder removes a folder and every document in it, locally then
// remotely.
func (e *Engine) DeleteFolder(ctx context.Context, folderID string) error {
	var ops []Operation
	found := false

	e.mutate(ctx, func(s *models.Snapshot) {
		f, ok := s.FolderByID(folderID)
		if !ok {
			return
		}
		found = true

		for _, doc := range s.Documents {
			if doc.FolderID == folderID {
				ops = append(ops, Operation{
					Kind:     OpDelete,
					Table:    models.TableDocuments,
					EntityID: doc.ID,
					RecordID: doc.RemoteRecordID,
				})
			}
		}
		ops = append(ops, Operation{
			Kind:     OpDelete,
			Table:    models.TableDocumentFolders,
			EntityID: f.ID,
			RecordID: f.RemoteRecordID,
		})

		s.PruneFolder(folderID)
	})
	if !found {
		return common.ErrorNotFound
	}

	e.debounce.Cancel(folderID)
	e.session.Forget(folderID)
	return e.runOps(ctx, ops)
}

// AddDocument creates a document, at root level when folderID is empty. A
// non-empty password encrypts the document individually, independent of its
// folder.
func (e *Engine) AddDocument(ctx context.Context, folderID, title, password string) (models.Document, error) {
	now := e.now()
	doc := models.Document{
		ID:        models.NewID(),
		FolderID:  folderID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if password != "" {
		doc.IsEncrypted = true
		doc.EncryptionVerifier = cryptox.MakeVerifier(password)
		e.session.Unlock(doc.ID, password, doc.EncryptionVerifier)
	}

	var (
		sortOrder int
		found     = folderID == ""
	)
	snap := e.mutate(ctx, func(s *models.Snapshot) {
		if folderID != "" {
			if _, ok := s.FolderByID(folderID); !ok {
				return
			}
			found = true
		}
		s.Documents = append(s.Documents, doc)
		sortOrder = len(s.Documents) - 1
	})
	if !found {
		return doc, common.ErrorNotFound
	}

	fields, ok, err := e.outboundDocument(ctx, snap, doc, sortOrder, 0)
	if err != nil {
		return doc, err
	}
	if !ok {
		return doc, nil
	}
	return doc, e.runOps(ctx, []Operation{{
		Kind:     OpCreate,
		Table:    models.TableDocuments,
		EntityID: doc.ID,
		Fields:   fields,
	}})
}

// UpdateDocument replaces a document's title and content, bumps its
// modification time, and schedules a debounced push.
func (e *Engine) UpdateDocument(ctx context.Context, docID, title, content string) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		for i := range s.Documents {
			if s.Documents[i].ID == docID {
				s.Documents[i].Title = title
				s.Documents[i].Content = content
				s.Documents[i].UpdatedAt = e.now()
				found = true
				return
			}
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.pushLater(docID, func(ctx context.Context) (Operation, bool) {
		return e.documentUpdateOp(ctx, docID)
	})
	return nil
}

func (e *Engine) documentUpdateOp(ctx context.Context, docID string) (Operation, bool) {
	snap := e.Snapshot()
	for i := range snap.Documents {
		if snap.Documents[i].ID != docID {
			continue
		}
		fields, ok, err := e.outboundDocument(ctx, snap, snap.Documents[i], i, 0)
		if err != nil {
			e.log.Warn(ctx, "outbound transform failed", "document", docID, "err", err)
			return Operation{}, false
		}
		if !ok {
			return Operation{}, false
		}
		return Operation{
			Kind:     OpUpdate,
			Table:    models.TableDocuments,
			EntityID: docID,
			RecordID: snap.Documents[i].RemoteRecordID,
			Fields:   fields,
		}, true
	}
	return Operation{}, false
}

// DeleteDocument removes a document locally and remotely.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) error {
	var op Operation
	found := false

	e.mutate(ctx, func(s *models.Snapshot) {
		for i := range s.Documents {
			if s.Documents[i].ID != docID {
				continue
			}
			found = true
			op = Operation{
				Kind:     OpDelete,
				Table:    models.TableDocuments,
				EntityID: docID,
				RecordID: s.Documents[i].RemoteRecordID,
			}
			s.Documents = append(s.Documents[:i], s.Documents[i+1:]...)
			return
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.debounce.Cancel(docID)
	e.session.Forget(docID)
	return e.runOps(ctx, []Operation{op})
}

// UnlockFolder verifies a password against a folder's verifier and, on
// success, decrypts the folder's loaded documents in place.
func (e *Engine) UnlockFolder(ctx context.Context, folderID, password string) bool {
	ok := false
	e.mutate(ctx, func(s *models.Snapshot) {
		ok = e.session.UnlockFolder(ctx, s, folderID, password)
	})
	return ok
}

// UnlockDocument verifies a password for an individually encrypted
// document.
func (e *Engine) UnlockDocument(ctx context.Context, docID, password string) bool {
	ok := false
	e.mutate(ctx, func(s *models.Snapshot) {
		ok = e.session.UnlockDocument(ctx, s, docID, password)
	})
	return ok
}

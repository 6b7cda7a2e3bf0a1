package services

import (
	"context"

	"qingplan/internal/client/models"
	"qingplan/internal/client/sync"
)

// DocumentService exposes folders and documents to the CLI.
type DocumentService struct {
	engine *sync.Engine
}

func NewDocumentService(engine *sync.Engine) *DocumentService {
	return &DocumentService{engine: engine}
}

// Tree returns all folders plus the documents grouped by folder id; the
// empty key holds root-level documents.
func (s *DocumentService) Tree() ([]models.Folder, map[string][]models.Document) {
	snap := s.engine.Snapshot()
	grouped := make(map[string][]models.Document)
	for _, doc := range snap.Documents {
		grouped[doc.FolderID] = append(grouped[doc.FolderID], doc)
	}
	return snap.DocumentFolders, grouped
}

func (s *DocumentService) AddFolder(ctx context.Context, title, password string) (models.Folder, error) {
	return s.engine.AddFolder(ctx, title, password)
}

func (s *DocumentService) RenameFolder(ctx context.Context, folderID, title string) error {
	return s.engine.RenameFolder(ctx, folderID, title)
}

func (s *DocumentService) DeleteFolder(ctx context.Context, folderID string) error {
	return s.engine.DeleteFolder(ctx, folderID)
}

func (s *DocumentService) AddDocument(ctx context.Context, folderID, title, password string) (models.Document, error) {
	return s.engine.AddDocument(ctx, folderID, title, password)
}

func (s *DocumentService) UpdateDocument(ctx context.Context, docID, title, content string) error {
	return s.engine.UpdateDocument(ctx, docID, title, content)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, docID string) error {
	return s.engine.DeleteDocument(ctx, docID)
}

// Unlock tries id first as a folder, then as an individually encrypted
// document.
func (s *DocumentService) Unlock(ctx context.Context, id, password string) bool {
	if s.engine.UnlockFolder(ctx, id, password) {
		return true
	}
	return s.engine.UnlockDocument(ctx, id, password)
}

package sync

import (
	"context"
	"errors"
	"sort"

	"qingplan/internal/client/models"
	"qingplan/internal/common"
)

// Outbound field builders. Every record leaving the client passes through
// the gate here; this is the only place payloads are assembled, so the
// "no fresh plaintext of a locked entity on the wire" property holds
// globally. syncVersion is attached only on the full-snapshot path
// (syncVersion == 0 means incremental) and is never read back
// programmatically.

func withVersion(f models.Fields, syncVersion int64) models.Fields {
	if syncVersion != 0 {
		f["syncVersion"] = syncVersion
	}
	return f
}

func (e *Engine) outboundColumn(ctx context.Context, col models.Column, sortOrder int, syncVersion int64) (models.Fields, error) {
	title, err := e.session.OutboundTitle(ctx, col.ID, col.IsEncrypted, col.Title)
	if err != nil {
		return nil, err
	}
	col.Title = title
	return withVersion(col.Fields(e.userID, sortOrder), syncVersion), nil
}

// outboundCard returns ok=false when the card must be excluded from sync
// (fresh plaintext in a locked column).
func (e *Engine) outboundCard(ctx context.Context, snap *models.Snapshot, card models.Card, sortOrder int, syncVersion int64) (models.Fields, bool, error) {
	encrypted := false
	if col, ok := snap.ColumnByID(card.ColumnID); ok {
		encrypted = col.IsEncrypted
	}

	content, err := e.session.OutboundContent(ctx, card.ColumnID, encrypted, card.Content)
	if errors.Is(err, common.ErrMissingPassword) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	card.Content = content
	return withVersion(card.Fields(e.userID, sortOrder), syncVersion), true, nil
}

func (e *Engine) outboundFolder(ctx context.Context, folder models.Folder, sortOrder int, syncVersion int64) (models.Fields, error) {
	title, err := e.session.OutboundTitle(ctx, folder.ID, folder.IsEncrypted, folder.Title)
	if err != nil {
		return nil, err
	}
	folder.Title = title
	return withVersion(folder.Fields(e.userID, sortOrder), syncVersion), nil
}

// outboundDocument treats the document itself as the encryption owner when
// individually encrypted, otherwise its folder. Title and content are
// gated alike; a document whose content may not leave is excluded whole.
func (e *Engine) outboundDocument(ctx context.Context, snap *models.Snapshot, doc models.Document, sortOrder int, syncVersion int64) (models.Fields, bool, error) {
	ownerID := ""
	encrypted := false
	switch {
	case doc.IsEncrypted:
		ownerID, encrypted = doc.ID, true
	case doc.FolderID != "":
		if f, ok := snap.FolderByID(doc.FolderID); ok && f.IsEncrypted {
			ownerID, encrypted = f.ID, true
		}
	}

	content, err := e.session.OutboundContent(ctx, ownerID, encrypted, doc.Content)
	if err == nil {
		doc.Content = content
		doc.Title, err = e.session.OutboundContent(ctx, ownerID, encrypted, doc.Title)
	}
	if errors.Is(err, common.ErrMissingPassword) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return withVersion(doc.Fields(e.userID, sortOrder), syncVersion), true, nil
}

// outboundTables assembles the full-snapshot payload for all five logical
// tables, applying the gate per record.
func (e *Engine) outboundTables(ctx context.Context, snap *models.Snapshot, syncVersion int64) (map[models.Table][]models.Fields, error) {
	out := make(map[models.Table][]models.Fields, len(models.SnapshotTables))

	appendColumns := func(cols []models.Column) error {
		for i, col := range cols {
			f, err := e.outboundColumn(ctx, col, i, syncVersion)
			if err != nil {
				return err
			}
			out[models.TableColumns] = append(out[models.TableColumns], f)
		}
		return nil
	}
	if err := appendColumns(snap.Columns); err != nil {
		return nil, err
	}
	if err := appendColumns(snap.IdeaColumns); err != nil {
		return nil, err
	}

	appendCards := func(table models.Table, cards []models.Card) error {
		for i, card := range cards {
			f, ok, err := e.outboundCard(ctx, snap, card, i, syncVersion)
			if err != nil {
				return err
			}
			if ok {
				out[table] = append(out[table], f)
			}
		}
		return nil
	}
	if err := appendCards(models.TableTasks, snap.Tasks); err != nil {
		return nil, err
	}
	if err := appendCards(models.TableIdeas, snap.Ideas); err != nil {
		return nil, err
	}

	for i, folder := range snap.DocumentFolders {
		f, err := e.outboundFolder(ctx, folder, i, syncVersion)
		if err != nil {
			return nil, err
		}
		out[models.TableDocumentFolders] = append(out[models.TableDocumentFolders], f)
	}
	for i, doc := range snap.Documents {
		f, ok, err := e.outboundDocument(ctx, snap, doc, i, syncVersion)
		if err != nil {
			return nil, err
		}
		if ok {
			out[models.TableDocuments] = append(out[models.TableDocuments], f)
		}
	}
	return out, nil
}

// pull reads all five tables and reassembles a snapshot ordered by the
// explicit sortOrder field.
func (e *Engine) pull(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}

	type sorted[T any] struct {
		order int64
		item  T
	}

	records, err := e.remote.ListByUser(ctx, models.TableColumns, e.userID)
	if err != nil {
		return nil, err
	}
	var cols []sorted[models.Column]
	for _, r := range records {
		cols = append(cols, sorted[models.Column]{r.Fields.SortOrder(), models.ColumnFromFields(r.RecordID, r.Fields)})
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].order < cols[j].order })
	for _, c := range cols {
		if c.item.Kind == models.ColumnKindIdea {
			snap.IdeaColumns = append(snap.IdeaColumns, c.item)
		} else {
			snap.Columns = append(snap.Columns, c.item)
		}
	}

	pullCards := func(table models.Table) ([]models.Card, error) {
		records, err := e.remote.ListByUser(ctx, table, e.userID)
		if err != nil {
			return nil, err
		}
		var cards []sorted[models.Card]
		for _, r := range records {
			cards = append(cards, sorted[models.Card]{r.Fields.SortOrder(), models.CardFromFields(r.RecordID, r.Fields)})
		}
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].order < cards[j].order })
		out := make([]models.Card, 0, len(cards))
		for _, c := range cards {
			out = append(out, c.item)
		}
		return out, nil
	}
	if snap.Tasks, err = pullCards(models.TableTasks); err != nil {
		return nil, err
	}
	if snap.Ideas, err = pullCards(models.TableIdeas); err != nil {
		return nil, err
	}

	records, err = e.remote.ListByUser(ctx, models.TableDocumentFolders, e.userID)
	if err != nil {
		return nil, err
	}
	var folders []sorted[models.Folder]
	for _, r := range records {
		folders = append(folders, sorted[models.Folder]{r.Fields.SortOrder(), models.FolderFromFields(r.RecordID, r.Fields)})
	}
	sort.SliceStable(folders, func(i, j int) bool { return folders[i].order < folders[j].order })
	for _, f := range folders {
		snap.DocumentFolders = append(snap.DocumentFolders, f.item)
	}

	records, err = e.remote.ListByUser(ctx, models.TableDocuments, e.userID)
	if err != nil {
		return nil, err
	}
	var docs []sorted[models.Document]
	for _, r := range records {
		docs = append(docs, sorted[models.Document]{r.Fields.SortOrder(), models.DocumentFromFields(r.RecordID, r.Fields)})
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].order < docs[j].order })
	for _, d := range docs {
		snap.Documents = append(snap.Documents, d.item)
	}

	return snap, nil
}

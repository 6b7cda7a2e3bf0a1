package sync

import (
	"context"

	"qingplan/internal/client/models"
	"qingplan/internal/common"
	"qingplan/internal/cryptox"
)

// Board mutations. Each one applies locally first (memory, then cache),
// then pushes remotely: single-entity changes go incremental, order changes
// go through the full-snapshot strategy.

// AddColumn appends a column to the board of the given kind. A non-empty
// password encrypts the column from birth: the verifier is derived here and
// the password enters the gate session so content can round-trip.
func (e *Engine) AddColumn(ctx context.Context, kind models.ColumnKind, title, password string) (models.Column, error) {
	col := models.Column{
		ID:    models.NewID(),
		Kind:  kind,
		Title: title,
	}
	if password != "" {
		col.IsEncrypted = true
		col.EncryptionVerifier = cryptox.MakeVerifier(password)
		e.session.Unlock(col.ID, password, col.EncryptionVerifier)
	}

	var sortOrder int
	e.mutate(ctx, func(s *models.Snapshot) {
		if kind == models.ColumnKindIdea {
			s.IdeaColumns = append(s.IdeaColumns, col)
			sortOrder = len(s.IdeaColumns) - 1
		} else {
			s.Columns = append(s.Columns, col)
			sortOrder = len(s.Columns) - 1
		}
	})

	fields, err := e.outboundColumn(ctx, col, sortOrder, 0)
	if err != nil {
		return col, err
	}
	return col, e.runOps(ctx, []Operation{{
		Kind:     OpCreate,
		Table:    models.TableColumns,
		EntityID: col.ID,
		Fields:   fields,
	}})
}

// RenameColumn changes a column title locally and schedules a debounced
// push; a typing burst results in one remote write with the final title.
func (e *Engine) RenameColumn(ctx context.Context, columnID, title string) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		if col, ok := s.ColumnByID(columnID); ok {
			col.Title = title
			found = true
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.pushLater(columnID, func(ctx context.Context) (Operation, bool) {
		return e.columnUpdateOp(ctx, columnID)
	})
	return nil
}

// columnUpdateOp rebuilds the update operation for a column from current
// state at debounce fire time.
func (e *Engine) columnUpdateOp(ctx context.Context, columnID string) (Operation, bool) {
	snap := e.Snapshot()
	col, sortOrder, ok := findColumn(snap, columnID)
	if !ok {
		return Operation{}, false
	}
	fields, err := e.outboundColumn(ctx, *col, sortOrder, 0)
	if err != nil {
		e.log.Warn(ctx, "outbound transform failed", "column", columnID, "err", err)
		return Operation{}, false
	}
	return Operation{
		Kind:     OpUpdate,
		Table:    models.TableColumns,
		EntityID: col.ID,
		RecordID: col.RemoteRecordID,
		Fields:   fields,
	}, true
}

// DeleteColumn removes a column and all of its cards, locally then
// remotely. The remote cascade is a sequence of deletes; entities never
// created remotely are skipped.
func (e *Engine) DeleteColumn(ctx context.Context, columnID string) error {
	var ops []Operation
	found := false

	e.mutate(ctx, func(s *models.Snapshot) {
		col, _, ok := findColumn(s, columnID)
		if !ok {
			return
		}
		found = true

		table := models.TableTasks
		cards := s.Tasks
		if col.Kind == models.ColumnKindIdea {
			table = models.TableIdeas
			cards = s.Ideas
		}
		for _, card := range cards {
			if card.ColumnID == columnID {
				ops = append(ops, Operation{
					Kind:     OpDelete,
					Table:    table,
					EntityID: card.ID,
					RecordID: card.RemoteRecordID,
				})
			}
		}
		ops = append(ops, Operation{
			Kind:     OpDelete,
			Table:    models.TableColumns,
			EntityID: col.ID,
			RecordID: col.RemoteRecordID,
		})

		s.PruneColumn(columnID)
	})
	if !found {
		return common.ErrorNotFound
	}

	e.debounce.Cancel(columnID)
	e.session.Forget(columnID)
	return e.runOps(ctx, ops)
}

// AddCard appends a card to a column. The card inherits the column's board
// via the column kind; content in a locked column is excluded from the
// push, not from local state.
func (e *Engine) AddCard(ctx context.Context, columnID, content string, aiGenerated bool) (models.Card, error) {
	card := models.Card{
		ID:            models.NewID(),
		ColumnID:      columnID,
		Content:       content,
		IsAIGenerated: aiGenerated,
	}

	var (
		table     models.Table
		sortOrder int
		found     bool
	)
	snap := e.mutate(ctx, func(s *models.Snapshot) {
		col, _, ok := findColumn(s, columnID)
		if !ok {
			return
		}
		found = true
		if col.Kind == models.ColumnKindIdea {
			s.Ideas = append(s.Ideas, card)
			table, sortOrder = models.TableIdeas, len(s.Ideas)-1
		} else {
			s.Tasks = append(s.Tasks, card)
			table, sortOrder = models.TableTasks, len(s.Tasks)-1
		}
	})
	if !found {
		return card, common.ErrorNotFound
	}

	fields, ok, err := e.outboundCard(ctx, snap, card, sortOrder, 0)
	if err != nil {
		return card, err
	}
	if !ok {
		return card, nil
	}
	return card, e.runOps(ctx, []Operation{{
		Kind:     OpCreate,
		Table:    table,
		EntityID: card.ID,
		Fields:   fields,
	}})
}

// UpdateCardContent edits a card's content locally and schedules a
// debounced push.
func (e *Engine) UpdateCardContent(ctx context.Context, cardID, content string) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		if card, _, _, ok := findCard(s, cardID); ok {
			card.Content = content
			found = true
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.pushLater(cardID, func(ctx context.Context) (Operation, bool) {
		return e.cardUpdateOp(ctx, cardID)
	})
	return nil
}

// ToggleCardComplete flips a card's completion flag and pushes immediately.
func (e *Engine) ToggleCardComplete(ctx context.Context, cardID string) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		if card, _, _, ok := findCard(s, cardID); ok {
			card.Completed = !card.Completed
			found = true
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	op, ok := e.cardUpdateOp(ctx, cardID)
	if !ok {
		return nil
	}
	return e.runOps(ctx, []Operation{op})
}

func (e *Engine) cardUpdateOp(ctx context.Context, cardID string) (Operation, bool) {
	snap := e.Snapshot()
	card, table, sortOrder, ok := findCard(snap, cardID)
	if !ok {
		return Operation{}, false
	}
	fields, ok, err := e.outboundCard(ctx, snap, *card, sortOrder, 0)
	if err != nil {
		e.log.Warn(ctx, "outbound transform failed", "card", cardID, "err", err)
		return Operation{}, false
	}
	if !ok {
		return Operation{}, false
	}
	return Operation{
		Kind:     OpUpdate,
		Table:    table,
		EntityID: card.ID,
		RecordID: card.RemoteRecordID,
		Fields:   fields,
	}, true
}

// DeleteCard removes a card locally and remotely.
func (e *Engine) DeleteCard(ctx context.Context, cardID string) error {
	var op Operation
	found := false

	e.mutate(ctx, func(s *models.Snapshot) {
		card, table, _, ok := findCard(s, cardID)
		if !ok {
			return
		}
		found = true
		op = Operation{
			Kind:     OpDelete,
			Table:    table,
			EntityID: card.ID,
			RecordID: card.RemoteRecordID,
		}
		if table == models.TableIdeas {
			s.Ideas = removeCard(s.Ideas, cardID)
		} else {
			s.Tasks = removeCard(s.Tasks, cardID)
		}
	})
	if !found {
		return common.ErrorNotFound
	}

	e.debounce.Cancel(cardID)
	return e.runOps(ctx, []Operation{op})
}

// MoveCard moves a card to a position within another (or the same) column
// of the same board. Order is positional, so the whole snapshot is pushed.
func (e *Engine) MoveCard(ctx context.Context, cardID, toColumnID string, toIndex int) error {
	found := false
	e.mutate(ctx, func(s *models.Snapshot) {
		card, table, _, ok := findCard(s, cardID)
		if !ok {
			return
		}
		if _, _, ok := findColumn(s, toColumnID); !ok {
			return
		}
		found = true

		moved := *card
		moved.ColumnID = toColumnID
		if table == models.TableIdeas {
			rest := removeCard(s.Ideas, cardID)
			s.Ideas = insertCard(rest, moved, globalIndex(rest, toColumnID, toIndex))
		} else {
			rest := removeCard(s.Tasks, cardID)
			s.Tasks = insertCard(rest, moved, globalIndex(rest, toColumnID, toIndex))
		}
	})
	if !found {
		return common.ErrorNotFound
	}
	return e.ReplaceAll(ctx)
}

// UnlockColumn verifies a password against a column's verifier and, on
// success, decrypts the column's loaded cards in place.
func (e *Engine) UnlockColumn(ctx context.Context, columnID, password string) bool {
	ok := false
	e.mutate(ctx, func(s *models.Snapshot) {
		ok = e.session.UnlockColumn(ctx, s, columnID, password)
	})
	return ok
}

func findColumn(s *models.Snapshot, id string) (*models.Column, int, bool) {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return &s.Columns[i], i, true
		}
	}
	for i := range s.IdeaColumns {
		if s.IdeaColumns[i].ID == id {
			return &s.IdeaColumns[i], i, true
		}
	}
	return nil, 0, false
}

func findCard(s *models.Snapshot, id string) (*models.Card, models.Table, int, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], models.TableTasks, i, true
		}
	}
	for i := range s.Ideas {
		if s.Ideas[i].ID == id {
			return &s.Ideas[i], models.TableIdeas, i, true
		}
	}
	return nil, "", 0, false
}

func removeCard(cards []models.Card, id string) []models.Card {
	out := cards[:0]
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// globalIndex maps a position within one column to an index in the flat
// card slice.
func globalIndex(cards []models.Card, columnID string, position int) int {
	seen := 0
	for i, c := range cards {
		if c.ColumnID != columnID {
			continue
		}
		if seen == position {
			return i
		}
		seen++
	}
	return len(cards)
}

func insertCard(cards []models.Card, card models.Card, index int) []models.Card {
	if index < 0 || index > len(cards) {
		index = len(cards)
	}
	cards = append(cards, models.Card{})
	copy(cards[index+1:], cards[index:])
	cards[index] = card
	return cards
}

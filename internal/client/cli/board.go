package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"qingplan/internal/client/models"
	"qingplan/internal/common"
	"qingplan/internal/cryptox"
)

// resolveID finds the single id matching prefix. An exact match wins over
// prefix matches; otherwise the prefix must be unambiguous.
func resolveID(prefix string, ids []string) (string, error) {
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
	}
	var match string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("nothing matches id %q", prefix)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) columnIDs() []string {
	snap := a.engine.Snapshot()
	ids := make([]string, 0, len(snap.Columns)+len(snap.IdeaColumns))
	for _, c := range snap.Columns {
		ids = append(ids, c.ID)
	}
	for _, c := range snap.IdeaColumns {
		ids = append(ids, c.ID)
	}
	return ids
}

func (a *App) cardIDs() []string {
	snap := a.engine.Snapshot()
	ids := make([]string, 0, len(snap.Tasks)+len(snap.Ideas))
	for _, c := range snap.Tasks {
		ids = append(ids, c.ID)
	}
	for _, c := range snap.Ideas {
		ids = append(ids, c.ID)
	}
	return ids
}

// optionalPassword asks for an encryption password; an empty answer means
// the entity stays plaintext.
func (a *App) optionalPassword() (string, error) {
	pw, err := getPassword(os.Stdout, "Encryption password (empty for none)")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func cardLabel(c models.Card) string {
	content := c.Content
	if cryptox.IsEncrypted(content) {
		content = "[locked]"
	}
	mark := " "
	if c.Completed {
		mark = "x"
	}
	ai := ""
	if c.IsAIGenerated {
		ai = " (AI)"
	}
	return fmt.Sprintf("  [%s] %s %s%s", mark, shortID(c.ID), content, ai)
}

func (a *App) ShowBoard(ctx context.Context, kind models.ColumnKind) error {
	cols, cards := a.board.Board(kind)
	if len(cols) == 0 {
		printlnFn("No columns yet. Try: addcol", string(kind), "<title>")
		return nil
	}
	for _, col := range cols {
		lock := ""
		if col.IsEncrypted {
			lock = " [encrypted]"
		}
		printlnFn(fmt.Sprintf("%s %s%s", shortID(col.ID), col.Title, lock))
		for _, card := range cards[col.ID] {
			printlnFn(cardLabel(card))
		}
	}
	return nil
}

func (a *App) AddColumn(ctx context.Context, kind models.ColumnKind, args []string) error {
	title := strings.Join(args, " ")
	password, err := a.optionalPassword()
	if err != nil {
		return err
	}
	col, err := a.board.AddColumn(ctx, kind, title, password)
	if err != nil {
		printlnFn("Add column failed:", err.Error())
		return err
	}
	printlnFn("Added column", shortID(col.ID))
	return nil
}

func (a *App) RenameColumn(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: renamecol <id> <title>")
		return nil
	}
	id, err := resolveID(args[0], a.columnIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.board.RenameColumn(ctx, id, strings.Join(args[1:], " "))
}

func (a *App) DeleteColumn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: delcol <id>")
		return nil
	}
	id, err := resolveID(args[0], a.columnIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	if err := a.board.DeleteColumn(ctx, id); err != nil {
		printlnFn("Delete failed:", err.Error())
		return err
	}
	printlnFn("Deleted column", shortID(id))
	return nil
}

func (a *App) AddCard(ctx context.Context, kind models.ColumnKind, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage:", "add"+string(kind), "<column>")
		return nil
	}
	id, err := resolveID(args[0], a.columnIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	content, err := GetMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}
	card, err := a.board.AddCard(ctx, id, content)
	if err != nil {
		printlnFn("Add failed:", err.Error())
		return err
	}
	printlnFn("Added", shortID(card.ID))
	return nil
}

func (a *App) ToggleDone(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: done <id>")
		return nil
	}
	id, err := resolveID(args[0], a.cardIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.board.ToggleComplete(ctx, id)
}

func (a *App) EditCard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: edit <id>")
		return nil
	}
	id, err := resolveID(args[0], a.cardIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	content, err := GetMultiline(a.reader, "New content", os.Stdout)
	if err != nil {
		return err
	}
	return a.board.UpdateContent(ctx, id, content)
}

func (a *App) DeleteCard(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: del <id>")
		return nil
	}
	id, err := resolveID(args[0], a.cardIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.board.DeleteCard(ctx, id)
}

func (a *App) MoveCard(ctx context.Context, args []string) error {
	if len(args) != 3 {
		printlnFn("Usage: move <id> <column> <index>")
		return nil
	}
	cardID, err := resolveID(args[0], a.cardIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	colID, err := resolveID(args[1], a.columnIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	idx, err := strconv.Atoi(args[2])
	if err != nil || idx < 0 {
		printlnFn("Index must be a non-negative number.")
		return nil
	}
	if err := a.board.MoveCard(ctx, cardID, colID, idx); err != nil {
		printlnFn("Move failed:", err.Error())
		return err
	}
	return nil
}

func (a *App) OptimizeIdea(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: optimize <id>")
		return nil
	}
	id, err := resolveID(args[0], a.cardIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	card, err := a.board.OptimizeIdea(ctx, id)
	if err != nil {
		printlnFn("Optimize failed:", err.Error())
		return err
	}
	printlnFn("Added optimized idea", shortID(card.ID))
	return nil
}

// Unlock tries id against columns first, then folders and documents.
func (a *App) Unlock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: unlock <id>")
		return nil
	}

	snap := a.engine.Snapshot()
	ids := a.columnIDs()
	for _, f := range snap.DocumentFolders {
		ids = append(ids, f.ID)
	}
	for _, d := range snap.Documents {
		ids = append(ids, d.ID)
	}
	id, err := resolveID(args[0], ids)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	pw, err := getPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if a.board.Unlock(ctx, id, string(pw)) || a.docs.Unlock(ctx, id, string(pw)) {
		printlnFn("Unlocked.")
		return nil
	}
	printlnFn("Wrong password.")
	return common.ErrInvalidCredential
}

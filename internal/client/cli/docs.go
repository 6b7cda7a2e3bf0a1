package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"qingplan/internal/client/models"
	"qingplan/internal/cryptox"
)

func (a *App) folderIDs() []string {
	snap := a.engine.Snapshot()
	ids := make([]string, 0, len(snap.DocumentFolders))
	for _, f := range snap.DocumentFolders {
		ids = append(ids, f.ID)
	}
	return ids
}

func (a *App) docIDs() []string {
	snap := a.engine.Snapshot()
	ids := make([]string, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		ids = append(ids, d.ID)
	}
	return ids
}

func docLabel(d models.Document) string {
	title := d.Title
	if cryptox.IsEncrypted(title) {
		title = "[locked]"
	}
	return fmt.Sprintf("  %s %s", shortID(d.ID), title)
}

func (a *App) ShowDocs(ctx context.Context) error {
	folders, docs := a.docs.Tree()
	if len(folders) == 0 && len(docs) == 0 {
		printlnFn("No documents yet. Try: addfolder <title> or adddoc")
		return nil
	}
	for _, d := range docs[""] {
		printlnFn(docLabel(d))
	}
	for _, f := range folders {
		lock := ""
		if f.IsEncrypted {
			lock = " [encrypted]"
		}
		printlnFn(fmt.Sprintf("%s %s/%s", shortID(f.ID), f.Title, lock))
		for _, d := range docs[f.ID] {
			printlnFn(docLabel(d))
		}
	}
	return nil
}

func (a *App) AddFolder(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: addfolder <title>")
		return nil
	}
	password, err := a.optionalPassword()
	if err != nil {
		return err
	}
	f, err := a.docs.AddFolder(ctx, strings.Join(args, " "), password)
	if err != nil {
		printlnFn("Add folder failed:", err.Error())
		return err
	}
	printlnFn("Added folder", shortID(f.ID))
	return nil
}

func (a *App) RenameFolder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: renamefolder <id> <title>")
		return nil
	}
	id, err := resolveID(args[0], a.folderIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.docs.RenameFolder(ctx, id, strings.Join(args[1:], " "))
}

func (a *App) DeleteFolder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: delfolder <id>")
		return nil
	}
	id, err := resolveID(args[0], a.folderIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	if err := a.docs.DeleteFolder(ctx, id); err != nil {
		printlnFn("Delete failed:", err.Error())
		return err
	}
	printlnFn("Deleted folder and its documents.")
	return nil
}

// AddDocument creates a document, inside a folder when one is given.
func (a *App) AddDocument(ctx context.Context, args []string) error {
	folderID := ""
	if len(args) > 0 {
		id, err := resolveID(args[0], a.folderIDs())
		if err != nil {
			printlnFn(err.Error())
			return err
		}
		folderID = id
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	password := ""
	if folderID == "" {
		if password, err = a.optionalPassword(); err != nil {
			return err
		}
	}
	doc, err := a.docs.AddDocument(ctx, folderID, title, password)
	if err != nil {
		printlnFn("Add document failed:", err.Error())
		return err
	}

	content, err := GetMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}
	if content != "" {
		if err := a.docs.UpdateDocument(ctx, doc.ID, title, content); err != nil {
			return err
		}
	}
	printlnFn("Added document", shortID(doc.ID))
	return nil
}

func (a *App) EditDocument(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: editdoc <id>")
		return nil
	}
	id, err := resolveID(args[0], a.docIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}
	return a.docs.UpdateDocument(ctx, id, title, content)
}

func (a *App) DeleteDocument(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: deldoc <id>")
		return nil
	}
	id, err := resolveID(args[0], a.docIDs())
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	return a.docs.DeleteDocument(ctx, id)
}

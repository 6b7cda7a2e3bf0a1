package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"qingplan/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with
// a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate. The real
// App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error

	ShowBoard(ctx context.Context, kind models.ColumnKind) error
	AddColumn(ctx context.Context, kind models.ColumnKind, args []string) error
	RenameColumn(ctx context.Context, args []string) error
	DeleteColumn(ctx context.Context, args []string) error
	AddCard(ctx context.Context, kind models.ColumnKind, args []string) error
	ToggleDone(ctx context.Context, args []string) error
	EditCard(ctx context.Context, args []string) error
	DeleteCard(ctx context.Context, args []string) error
	MoveCard(ctx context.Context, args []string) error
	OptimizeIdea(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error

	ShowDocs(ctx context.Context) error
	AddFolder(ctx context.Context, args []string) error
	RenameFolder(ctx context.Context, args []string) error
	DeleteFolder(ctx context.Context, args []string) error
	AddDocument(ctx context.Context, args []string) error
	EditDocument(ctx context.Context, args []string) error
	DeleteDocument(ctx context.Context, args []string) error

	SetAPIKey(ctx context.Context) error
	SyncNow(ctx context.Context) error
	RefreshNow(ctx context.Context) error
	Retry(ctx context.Context) error
	ShowStatus(ctx context.Context) error
}

const helpLoggedIn = `Boards:
  board | ideas                 show the task / idea board
  addcol <task|idea> <title>    add a column (asks for an optional password)
  renamecol <id> <title>        rename a column
  delcol <id>                   delete a column and its cards
  addtask <col> / addidea <col> add a card (content is read interactively)
  done <id>                     toggle task completion
  edit <id>                     replace card content
  del <id>                      delete a card
  move <id> <col> <index>       move a card
  optimize <id>                 rewrite an idea via AI, keeping the original
  unlock <id>                   unlock an encrypted column/folder/document
Documents:
  docs                          show the folder tree
  addfolder <title>             add a folder (asks for an optional password)
  adddoc [folder]               add a document, root level when no folder
  editdoc <id>                  edit a document
  deldoc <id> | delfolder <id>  delete
Sync:
  sync | refresh | retry | status
Other:
  apikey, logout, exit`

const helpLoggedOut = `Available commands: login, register, exit`

// runREPL reads lines from scanner, parses the first token as the command
// and dispatches to a. Unknown commands are reported back. The loop exits on
// EOF or "exit"/"quit". Handler errors are already reported by the handlers;
// the loop ignores them to stay alive.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("qp %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpLoggedOut)
			case "login":
				_ = a.Login(ctx)
			case "register":
				_ = a.Register(ctx)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpLoggedIn)

		case "b", "board":
			_ = a.ShowBoard(ctx, models.ColumnKindTask)
		case "i", "ideas":
			_ = a.ShowBoard(ctx, models.ColumnKindIdea)
		case "addcol":
			if len(args) < 2 || (args[0] != "task" && args[0] != "idea") {
				printlnFn("Usage: addcol <task|idea> <title>")
				continue
			}
			_ = a.AddColumn(ctx, models.ColumnKind(args[0]), args[1:])
		case "renamecol":
			_ = a.RenameColumn(ctx, args)
		case "delcol":
			_ = a.DeleteColumn(ctx, args)
		case "addtask":
			_ = a.AddCard(ctx, models.ColumnKindTask, args)
		case "addidea":
			_ = a.AddCard(ctx, models.ColumnKindIdea, args)
		case "done":
			_ = a.ToggleDone(ctx, args)
		case "edit":
			_ = a.EditCard(ctx, args)
		case "del":
			_ = a.DeleteCard(ctx, args)
		case "move":
			_ = a.MoveCard(ctx, args)
		case "optimize":
			_ = a.OptimizeIdea(ctx, args)
		case "unlock":
			_ = a.Unlock(ctx, args)

		case "docs":
			_ = a.ShowDocs(ctx)
		case "addfolder":
			_ = a.AddFolder(ctx, args)
		case "renamefolder":
			_ = a.RenameFolder(ctx, args)
		case "delfolder":
			_ = a.DeleteFolder(ctx, args)
		case "adddoc":
			_ = a.AddDocument(ctx, args)
		case "editdoc":
			_ = a.EditDocument(ctx, args)
		case "deldoc":
			_ = a.DeleteDocument(ctx, args)

		case "apikey":
			_ = a.SetAPIKey(ctx)
		case "sync":
			_ = a.SyncNow(ctx)
		case "refresh":
			_ = a.RefreshNow(ctx)
		case "retry":
			_ = a.Retry(ctx)
		case "status":
			_ = a.ShowStatus(ctx)

		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s %s) ", a.userID, a.engine.Status())
}

// Root starts the interactive shell. A stored session is resumed without a
// password prompt; otherwise the loop starts logged out.
func (a *App) Root(ctx context.Context) {
	printlnFn("轻计划 CLI (type 'help' for commands)")

	if userID, err := a.auth.CurrentUser(ctx); err == nil && userID != "" {
		if err := a.startSession(ctx, userID); err != nil {
			a.log.Warn(ctx, "session resume failed", "user", userID, "err", err)
		} else {
			printlnFn("Welcome back,", userID)
		}
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

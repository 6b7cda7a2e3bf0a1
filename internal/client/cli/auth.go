package cli

import (
	"context"
	"errors"
	"os"

	"qingplan/internal/common"
)

// getSimpleText, getPassword and printlnFn are indirections used to
// facilitate testing. They point to interactive input/output helpers and can
// be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login runs the combined flow against the companion server: an unknown
// user id is registered, a known one is logged in. On success the sync
// session starts (cache load, offline retry, pull).
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user id", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.auth.Auto(ctx, userName, string(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			printlnFn("Wrong password.")
			return err
		}
		printlnFn("Login failed:", err.Error())
		return err
	}

	if err := a.startSession(ctx, userID); err != nil {
		printlnFn("Session start failed:", err.Error())
		return err
	}

	printlnFn("Logged in as", userID)
	return nil
}

// Register creates an account explicitly. Unlike Login it fails when the
// user id is already taken.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Choose a user id", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	userID, err := a.auth.Register(ctx, userName, string(password))
	if err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	if err := a.startSession(ctx, userID); err != nil {
		printlnFn("Session start failed:", err.Error())
		return err
	}

	printlnFn("Registered and logged in as", userID)
	return nil
}

// Logout drops the session token and wipes the in-memory content passwords.
// Cached data stays on disk for the next start.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.endSession()
	printlnFn("Logged out.")
	return nil
}

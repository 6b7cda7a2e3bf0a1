// Package users resolves and creates user credentials in the remote users
// table. The server reads the table through the same client the CLI uses
// for content tables; the password never leaves as plaintext, only its
// salted verifier is stored.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/common"
	"qingplan/internal/cryptox"
)

type Service struct {
	remote remote.TableClient
}

func NewService(rem remote.TableClient) *Service {
	return &Service{remote: rem}
}

// Find returns the credential stored for userID.
func (s *Service) Find(ctx context.Context, userID string) (*models.Credential, error) {
	records, err := s.remote.ListByUser(ctx, models.TableUsers, userID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(records) == 0 {
		return nil, common.ErrorNotFound
	}
	cred := models.CredentialFromFields(records[0].Fields)
	return &cred, nil
}

// Register stores a new credential. The userID must not exist yet.
func (s *Service) Register(ctx context.Context, userID, password string) error {
	_, err := s.Find(ctx, userID)
	if err == nil {
		return common.ErrInvalidCredential
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	cred := models.Credential{
		UserID:       userID,
		PasswordHash: cryptox.MakeVerifier(password),
		CreatedAt:    time.Now().UnixMilli(),
	}
	if _, err := s.remote.CreateOne(ctx, models.TableUsers, cred.Fields()); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Authenticate verifies password against the stored verifier.
func (s *Service) Authenticate(ctx context.Context, userID, password string) error {
	cred, err := s.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidCredential
		}
		return err
	}
	if !cryptox.VerifyPassword(password, cred.PasswordHash) {
		return common.ErrInvalidCredential
	}
	return nil
}

// Resolve implements the auto flow: register when unknown, authenticate
// otherwise. Returns true when a new user was created.
func (s *Service) Resolve(ctx context.Context, userID, password string) (bool, error) {
	_, err := s.Find(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return true, s.Register(ctx, userID, password)
	}
	if err != nil {
		return false, err
	}
	return false, s.Authenticate(ctx, userID, password)
}

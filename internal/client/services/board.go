package services

import (
	"context"
	"fmt"

	"qingplan/internal/client/models"
	"qingplan/internal/client/sync"
)

// BoardService exposes the task and idea boards to the CLI. It is a thin
// layer over the engine: the engine owns state and sync, the service owns
// naming and the optimizer glue.
type BoardService struct {
	engine    *sync.Engine
	optimizer Optimizer
}

func NewBoardService(engine *sync.Engine, optimizer Optimizer) *BoardService {
	return &BoardService{engine: engine, optimizer: optimizer}
}

// Board returns the columns of one board and the cards grouped per column,
// in display order.
func (s *BoardService) Board(kind models.ColumnKind) ([]models.Column, map[string][]models.Card) {
	snap := s.engine.Snapshot()

	cols := snap.Columns
	cards := snap.Tasks
	if kind == models.ColumnKindIdea {
		cols = snap.IdeaColumns
		cards = snap.Ideas
	}

	grouped := make(map[string][]models.Card, len(cols))
	for _, card := range cards {
		grouped[card.ColumnID] = append(grouped[card.ColumnID], card)
	}
	return cols, grouped
}

func (s *BoardService) AddColumn(ctx context.Context, kind models.ColumnKind, title, password string) (models.Column, error) {
	return s.engine.AddColumn(ctx, kind, title, password)
}

func (s *BoardService) RenameColumn(ctx context.Context, columnID, title string) error {
	return s.engine.RenameColumn(ctx, columnID, title)
}

func (s *BoardService) DeleteColumn(ctx context.Context, columnID string) error {
	return s.engine.DeleteColumn(ctx, columnID)
}

func (s *BoardService) AddCard(ctx context.Context, columnID, content string) (models.Card, error) {
	return s.engine.AddCard(ctx, columnID, content, false)
}

func (s *BoardService) UpdateContent(ctx context.Context, cardID, content string) error {
	return s.engine.UpdateCardContent(ctx, cardID, content)
}

func (s *BoardService) ToggleComplete(ctx context.Context, cardID string) error {
	return s.engine.ToggleCardComplete(ctx, cardID)
}

func (s *BoardService) DeleteCard(ctx context.Context, cardID string) error {
	return s.engine.DeleteCard(ctx, cardID)
}

func (s *BoardService) MoveCard(ctx context.Context, cardID, toColumnID string, toIndex int) error {
	return s.engine.MoveCard(ctx, cardID, toColumnID, toIndex)
}

// Unlock verifies a column password and decrypts its loaded cards.
func (s *BoardService) Unlock(ctx context.Context, columnID, password string) bool {
	return s.engine.UnlockColumn(ctx, columnID, password)
}

// OptimizeIdea rewrites an idea through the optimizer and stores the result
// as a new card in the same column, flagged as generated. The source idea
// stays untouched.
func (s *BoardService) OptimizeIdea(ctx context.Context, ideaID string) (models.Card, error) {
	if s.optimizer == nil {
		return models.Card{}, fmt.Errorf("optimizer not configured")
	}

	snap := s.engine.Snapshot()
	var src *models.Card
	for i := range snap.Ideas {
		if snap.Ideas[i].ID == ideaID {
			src = &snap.Ideas[i]
			break
		}
	}
	if src == nil {
		return models.Card{}, fmt.Errorf("idea %s not found", ideaID)
	}

	improved, err := s.optimizer.Optimize(ctx, src.Content)
	if err != nil {
		return models.Card{}, fmt.Errorf("optimize idea: %w", err)
	}
	return s.engine.AddCard(ctx, src.ColumnID, improved, true)
}

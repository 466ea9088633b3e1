package app

import (
	"context"

	"github.com/evanschultz/boardwalk/internal/domain"
)

type createdCard struct {
	boardID string
	listID  string
	draft   CardDraft
}

type fakeAPI struct {
	boards    map[string]domain.Board
	summaries []domain.BoardSummary
	recs      map[string][]domain.Recommendation

	moveErr   error
	getErr    error
	createErr error
	inviteErr error

	getCalls     int
	moves        []MoveRequest
	createdCards []createdCard
	patches      map[string]CardPatch
	lists        []string
	invites      []string
	boardDrafts  []BoardDraft
}

func newFakeAPI(boards ...domain.Board) *fakeAPI {
	f := &fakeAPI{
		boards:  map[string]domain.Board{},
		recs:    map[string][]domain.Recommendation{},
		patches: map[string]CardPatch{},
	}
	for _, b := range boards {
		f.boards[b.ID] = b
		f.summaries = append(f.summaries, b.Summary())
	}
	return f
}

func (f *fakeAPI) ListBoards(context.Context) ([]domain.BoardSummary, error) {
	return f.summaries, nil
}

func (f *fakeAPI) GetBoard(_ context.Context, id string) (domain.Board, error) {
	f.getCalls++
	if f.getErr != nil {
		return domain.Board{}, f.getErr
	}
	b, ok := f.boards[id]
	if !ok {
		return domain.Board{}, ErrNotFound
	}
	return b.Clone(), nil
}

func (f *fakeAPI) CreateBoard(_ context.Context, in BoardDraft) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.boardDrafts = append(f.boardDrafts, in)
	return nil
}

func (f *fakeAPI) CreateList(_ context.Context, boardID, name string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.lists = append(f.lists, boardID+"/"+name)
	return nil
}

func (f *fakeAPI) CreateCard(_ context.Context, boardID, listID string, in CardDraft) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdCards = append(f.createdCards, createdCard{boardID: boardID, listID: listID, draft: in})
	return nil
}

func (f *fakeAPI) UpdateCard(_ context.Context, cardID string, in CardPatch) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.patches[cardID] = in
	return nil
}

func (f *fakeAPI) MoveCard(_ context.Context, req MoveRequest) error {
	f.moves = append(f.moves, req)
	return f.moveErr
}

func (f *fakeAPI) InviteMember(_ context.Context, boardID, email string) error {
	if f.inviteErr != nil {
		return f.inviteErr
	}
	f.invites = append(f.invites, boardID+"/"+email)
	return nil
}

func (f *fakeAPI) ListRecommendations(_ context.Context, boardID string) ([]domain.Recommendation, error) {
	return f.recs[boardID], nil
}

func twoListBoard() domain.Board {
	return domain.Board{
		ID:   "b1",
		Name: "Roadmap",
		Lists: []domain.List{
			{ID: "A", Name: "Todo", Cards: []domain.Card{{ID: "card1", Title: "one"}, {ID: "card2", Title: "two"}}},
			{ID: "B", Name: "Done"},
		},
	}
}

func cardIDs(l domain.List) []string {
	out := make([]string, 0, len(l.Cards))
	for _, c := range l.Cards {
		out = append(out, c.ID)
	}
	return out
}

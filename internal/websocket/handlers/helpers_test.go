package handlers

import (
	"context"
	"time"

	"github.com/castlelight/gambit/internal/game"
)

type fakeGameService struct {
	createGame func(ctx context.Context, email, socketID string) (game.GameView, error)
	joinGame   func(ctx context.Context, email, socketID, gameID string) (game.GameView, error)
	applyMove  func(ctx context.Context, email, socketID, gameID string, req game.MoveRequest) (game.MoveOutcome, error)
	leave      func(ctx context.Context, email, socketID, gameID string) (game.LeaveOutcome, error)
}

func (f *fakeGameService) CreateGame(ctx context.Context, email, socketID string) (game.GameView, error) {
	return f.createGame(ctx, email, socketID)
}

func (f *fakeGameService) JoinGame(ctx context.Context, email, socketID, gameID string) (game.GameView, error) {
	return f.joinGame(ctx, email, socketID, gameID)
}

func (f *fakeGameService) ApplyMove(ctx context.Context, email, socketID, gameID string, req game.MoveRequest) (game.MoveOutcome, error) {
	return f.applyMove(ctx, email, socketID, gameID, req)
}

func (f *fakeGameService) Leave(ctx context.Context, email, socketID, gameID string) (game.LeaveOutcome, error) {
	return f.leave(ctx, email, socketID, gameID)
}

// testDeps wires a fake service with a pause that only counts.
func testDeps(svc GameService) (Deps, *int) {
	pauses := 0
	deps := NewDeps(svc, func(time.Duration) { pauses++ })
	return deps, &pauses
}

func twoPlayerView(status string) game.GameView {
	return game.GameView{
		ID:          "abc123",
		Status:      status,
		FEN:         "some-fen",
		CurrentTurn: game.ColorWhite,
		Players: []game.Player{
			{ID: "p1", Email: "host@x.io", Gamertag: "host", Elo: 1200, SocketID: "sock-host", Color: game.ColorWhite},
			{ID: "p2", Email: "join@x.io", Gamertag: "join", Elo: 1200, SocketID: "sock-join", Color: game.ColorBlack},
		},
	}
}

func emissionsByEvent(res EventResult, event string) []Emission {
	var out []Emission
	for _, em := range res.Emissions() {
		if em.Event() == event {
			out = append(out, em)
		}
	}
	return out
}

package session

import (
	"context"
	"fmt"
	"sync"

	"mahjong-service/internal/game"
	"mahjong-service/internal/tile"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/logger"

	"go.uber.org/zap"
)

const handSize = 13

// Store is the load/save contract for the session document.
type Store interface {
	LoadOrCreate(ctx context.Context) *game.GameState
	Save(ctx context.Context, state *game.GameState) error
}

// Archiver receives a superseded session before it is replaced on reset.
type Archiver interface {
	Archive(ctx context.Context, state *game.GameState) error
}

// StateMessage is pushed to websocket subscribers after every successful
// mutation.
type StateMessage struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq"`
	Data *game.GameState `json:"data"`
}

// Service owns the live GameState. Every mutating operation runs under one
// mutex, so two concurrent requests against the session cannot interleave a
// read-modify-write; the version stamp bumped per save makes any divergent
// writer observable in the persisted document.
type Service struct {
	store      Store
	archiver   Archiver
	proc       *game.Processor
	manualMode bool

	mu          sync.Mutex
	state       *game.GameState
	subscribers map[string]chan StateMessage
	seq         int64
}

func NewService(store Store, archiver Archiver, manualMode bool) *Service {
	return &Service{
		store:       store,
		archiver:    archiver,
		proc:        game.NewProcessor(),
		manualMode:  manualMode,
		subscribers: make(map[string]chan StateMessage),
	}
}

// Start loads or creates the session document. A store outage degrades to a
// fresh session; it never fails the process.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.store.LoadOrCreate(ctx)
	logger.Log.Info("session ready",
		zap.String("sessionID", s.state.SessionID),
		zap.Bool("manualMode", s.state.ManualMode),
	)
	return nil
}

// Apply routes one tagged operation through the processor, persists the full
// document and returns a uniform result. No fault escapes this boundary.
func (s *Service) Apply(ctx context.Context, op game.OperationRequest) game.OperationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, msg := s.proc.Apply(s.state, op)
	if ok {
		if err := s.saveLocked(ctx); err != nil {
			// The in-memory mutation stands; only the persisted view lags.
			ok = false
			msg = err.Error()
		}
	}
	if ok {
		s.broadcastLocked()
	}
	return game.OperationResult{Success: ok, Message: msg, State: s.state.Clone()}
}

// Reset archives the finished session (when it saw any actions) and replaces
// the state wholesale with a fresh one.
func (s *Service) Reset(ctx context.Context) *game.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.archiver != nil && s.state != nil && len(s.state.ActionLog) > 0 {
		if err := s.archiver.Archive(ctx, s.state.Clone()); err != nil {
			logger.Log.Warn("failed to archive superseded session",
				zap.String("sessionID", s.state.SessionID),
				zap.Error(err),
			)
		}
	}

	s.state = game.NewGameState(s.manualMode)
	if err := s.saveLocked(ctx); err != nil {
		logger.Log.Warn("failed to persist fresh session", zap.Error(err))
	}
	s.broadcastLocked()
	logger.Log.Info("session reset", zap.String("sessionID", s.state.SessionID))
	return s.state.Clone()
}

// StartGame deals the opening hands: thirteen tiles per seat off the wall.
// Only the self seat receives identities; the other seats gain counts while
// their popped tiles stay unrecorded, since no mutation may invent concrete
// tiles for them.
func (s *Service) StartGame(ctx context.Context) (*game.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Started {
		return nil, appErr.ErrGameAlreadyStarted
	}
	if len(s.state.DrawPile) < handSize*game.SeatCount {
		return nil, appErr.ErrDrawPileEmpty
	}

	for seat := 0; seat < game.SeatCount; seat++ {
		hand := s.state.Hands[seat]
		dealt := make([]tile.Tile, 0, handSize)
		for i := 0; i < handSize; i++ {
			dealt = append(dealt, s.popDrawLocked())
		}
		if hand.Known() {
			hand.KnownTiles = append(hand.KnownTiles, dealt...)
			hand.TileCount = len(hand.KnownTiles)
			s.state.AppendAction(seat, game.ActionDeal, dealt)
		} else {
			// Hidden identities stay unrecorded; only the count moves.
			hand.TileCount += handSize
			s.state.AppendAction(seat, game.ActionDeal, nil)
		}
	}
	s.state.Started = true

	if err := s.saveLocked(ctx); err != nil {
		return nil, err
	}
	s.broadcastLocked()
	return s.state.Clone(), nil
}

// Draw pops one tile off the wall for the seat. The drawn identity is
// returned only for the self seat; hidden seats just gain a count.
func (s *Service) Draw(ctx context.Context, seat int) (*tile.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seat < 0 || seat >= game.SeatCount {
		return nil, appErr.ErrSeatOutOfRange
	}
	if !s.state.Started {
		return nil, appErr.ErrGameNotStarted
	}
	if len(s.state.DrawPile) == 0 {
		return nil, appErr.ErrDrawPileEmpty
	}

	drawn := s.popDrawLocked()
	hand := s.state.Hands[seat]
	var result *tile.Tile
	if hand.Known() {
		hand.KnownTiles = append(hand.KnownTiles, drawn)
		hand.TileCount = len(hand.KnownTiles)
		result = &drawn
	} else {
		hand.TileCount++
	}

	if err := s.saveLocked(ctx); err != nil {
		return nil, err
	}
	s.broadcastLocked()
	return result, nil
}

// SetState replaces the document wholesale from a client-provided snapshot
// (frontend bulk sync). The imported document is normalized first.
func (s *Service) SetState(ctx context.Context, state *game.GameState) error {
	if state == nil {
		return fmt.Errorf("state is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state.EnsureHands()
	if state.SessionID == "" {
		state.SessionID = s.state.SessionID
	}
	s.state = state
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	s.broadcastLocked()
	return nil
}

// SetManualMode toggles the turn-order bypass on the live session.
func (s *Service) SetManualMode(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ManualMode = enabled
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	s.broadcastLocked()
	return nil
}

// Snapshot returns a deep copy of the live state.
func (s *Service) Snapshot() *game.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// RemainingTileCounts reports unseen copies per tile code.
func (s *Service) RemainingTileCounts() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RemainingTileCounts()
}

// Subscribe registers a websocket client for state pushes. The returned
// channel receives an immediate snapshot and then one message per mutation.
func (s *Service) Subscribe(clientID string) <-chan StateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan StateMessage, 8)
	s.subscribers[clientID] = ch
	s.seq++
	ch <- StateMessage{Type: "state", Seq: s.seq, Data: s.state.Clone()}
	return ch
}

func (s *Service) Unsubscribe(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[clientID]; ok {
		delete(s.subscribers, clientID)
		close(ch)
	}
}

func (s *Service) saveLocked(ctx context.Context) error {
	s.state.Version++
	return s.store.Save(ctx, s.state)
}

func (s *Service) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	s.seq++
	msg := StateMessage{Type: "state", Seq: s.seq, Data: s.state.Clone()}
	for clientID, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full", zap.String("clientID", clientID))
		}
	}
}

func (s *Service) popDrawLocked() tile.Tile {
	last := len(s.state.DrawPile) - 1
	drawn := s.state.DrawPile[last]
	s.state.DrawPile = s.state.DrawPile[:last]
	return drawn
}


// Package training runs review sessions inside a chat.
package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/srs"
	"gorm.io/datatypes"
)

// ErrNotActive means the answer does not belong to the chat's current prompt.
var ErrNotActive = errors.New("review prompt is not active")

// Prompt is the card currently shown in a session.
type Prompt struct {
	Card  db.Card
	Token string
	Index int
	Total int
}

type AnswerResult struct {
	Card    db.Card
	Correct bool
	// Index and Total locate the answered card within the session.
	Index         int
	Total         int
	Outcome       srs.Outcome
	CorrectCount  int
	AnsweredCount int
	// Next is nil once the session is finished.
	Next *Prompt
}

// Manager keeps one persisted session per chat. Every state change is
// written through to the store so a restart resumes where it stopped.
type Manager struct {
	mu       sync.Mutex
	repo     *db.Repository
	recorder *srs.Recorder
	now      func() time.Time
	newToken func() string
}

func NewManager(repo *db.Repository) *Manager {
	return &Manager{
		repo:     repo,
		recorder: srs.NewRecorder(repo),
		now:      time.Now,
		newToken: func() string { return fmt.Sprintf("%x", rand.Int63()) },
	}
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	m.recorder.WithClock(now)
	return m
}

// Start replaces any session of the chat. It reports false when none of the
// cards can be shown.
func (m *Manager) Start(ctx context.Context, chatID int64, mode string, cardIDs []string) (Prompt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := json.Marshal(cardIDs)
	if err != nil {
		return Prompt{}, false, err
	}
	session := &db.ReviewSession{
		ChatID:         chatID,
		Mode:           mode,
		CardIDs:        datatypes.JSON(raw),
		LastActivityAt: m.now(),
	}
	prompt, ok, err := m.advanceLocked(ctx, session, cardIDs)
	if err != nil || !ok {
		return Prompt{}, false, err
	}
	logger.Info("review session started", "chat_id", chatID, "mode", mode, "cards", len(cardIDs))
	return prompt, true, nil
}

// Current returns the prompt of an unexpired session, for resuming.
func (m *Manager) Current(ctx context.Context, chatID int64) (Prompt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ids, err := m.loadLocked(ctx, chatID)
	if err != nil || session == nil {
		return Prompt{}, false, err
	}
	card, err := m.repo.GetCard(ctx, ids[session.CurrentIndex])
	if errors.Is(err, db.ErrCardNotFound) {
		session.LastActivityAt = m.now()
		return m.advanceLocked(ctx, session, ids)
	}
	if err != nil {
		return Prompt{}, false, err
	}
	return Prompt{Card: card, Token: session.CurrentToken, Index: session.CurrentIndex, Total: len(ids)}, true, nil
}

// SetMessageID binds the current prompt to the message that shows it.
func (m *Manager) SetMessageID(ctx context.Context, chatID int64, token string, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, _, err := m.loadLocked(ctx, chatID)
	if err != nil {
		return err
	}
	if session == nil || session.CurrentToken != token {
		return ErrNotActive
	}
	session.CurrentMessageID = messageID
	session.LastActivityAt = m.now()
	return m.repo.UpsertReviewSession(ctx, session)
}

// Answer records the answer to the current prompt and moves to the next card.
// Stale tokens and answers from older messages are ErrNotActive.
func (m *Manager) Answer(ctx context.Context, chatID int64, token string, messageID int, correct bool) (AnswerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ids, err := m.loadLocked(ctx, chatID)
	if err != nil {
		return AnswerResult{}, err
	}
	if session == nil || session.CurrentToken != token {
		return AnswerResult{}, ErrNotActive
	}
	if session.CurrentMessageID != 0 && messageID != session.CurrentMessageID {
		return AnswerResult{}, ErrNotActive
	}

	cardID := ids[session.CurrentIndex]
	card, err := m.repo.GetCard(ctx, cardID)
	if err != nil && !errors.Is(err, db.ErrCardNotFound) {
		return AnswerResult{}, err
	}

	result := AnswerResult{Card: card, Correct: correct, Index: session.CurrentIndex, Total: len(ids)}
	if err == nil {
		outcome, err := m.recorder.RecordAnswer(ctx, cardID, correct)
		if err != nil {
			return AnswerResult{}, err
		}
		result.Outcome = outcome
		session.AnsweredCount++
		if correct {
			session.CorrectCount++
		}
	}
	result.CorrectCount = session.CorrectCount
	result.AnsweredCount = session.AnsweredCount

	session.CurrentIndex++
	session.LastActivityAt = m.now()
	next, ok, err := m.advanceLocked(ctx, session, ids)
	if err != nil {
		return AnswerResult{}, err
	}
	if ok {
		result.Next = &next
	} else {
		logger.Info("review session finished",
			"chat_id", chatID,
			"answered", session.AnsweredCount,
			"correct", session.CorrectCount)
	}
	return result, nil
}

func (m *Manager) End(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.DeleteReviewSession(ctx, chatID)
}

func (m *Manager) loadLocked(ctx context.Context, chatID int64) (*db.ReviewSession, []string, error) {
	session, err := m.repo.LoadReviewSession(ctx, chatID, m.now())
	if err != nil || session == nil {
		return nil, nil, err
	}
	var ids []string
	if err := json.Unmarshal(session.CardIDs, &ids); err != nil {
		return nil, nil, fmt.Errorf("decode session cards: %w", err)
	}
	if session.CurrentIndex < 0 || session.CurrentIndex >= len(ids) {
		logger.Warn("dropping review session with invalid index", "chat_id", chatID, "index", session.CurrentIndex)
		return nil, nil, m.repo.DeleteReviewSession(ctx, chatID)
	}
	return session, ids, nil
}

// advanceLocked finds the first existing card at or after CurrentIndex and
// persists the session pointing at it, or deletes the session when the queue
// is exhausted. Cards deleted since the session started are skipped.
func (m *Manager) advanceLocked(ctx context.Context, session *db.ReviewSession, ids []string) (Prompt, bool, error) {
	for ; session.CurrentIndex < len(ids); session.CurrentIndex++ {
		card, err := m.repo.GetCard(ctx, ids[session.CurrentIndex])
		if errors.Is(err, db.ErrCardNotFound) {
			continue
		}
		if err != nil {
			return Prompt{}, false, err
		}

		session.CurrentToken = m.newToken()
		session.CurrentMessageID = 0
		if err := m.repo.UpsertReviewSession(ctx, session); err != nil {
			return Prompt{}, false, fmt.Errorf("persist review session: %w", err)
		}
		return Prompt{Card: card, Token: session.CurrentToken, Index: session.CurrentIndex, Total: len(ids)}, true, nil
	}

	if err := m.repo.DeleteReviewSession(ctx, session.ChatID); err != nil {
		return Prompt{}, false, err
	}
	return Prompt{}, false, nil
}

// Package session keeps short-lived conversation state for chat-driven
// booking flows in Redis.  A customer talking to the shop bot answers one
// question per message, so the partially-filled reservation lives here
// between messages, keyed by store and chat user, until it is submitted or
// expires.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no session exists for the given key.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL bounds an idle conversation.  Abandoned flows must not hold
// partial state forever.
const DefaultTTL = 30 * time.Minute

// State is the partially-collected reservation for one conversation.
// Fields fill in as the customer answers; Step names the next question.
type State struct {
	Step      string `json:"step"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	People    int    `json:"people,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// Store reads and writes conversation state in Redis.  A nil client makes
// every lookup miss, which callers treat the same as an expired session.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore constructs a Store.  ttl <= 0 selects DefaultTTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(storeID, userID string) string {
	return fmt.Sprintf("chatsess:%s:%s", storeID, userID)
}

// Get loads the state for (storeID, userID).  ErrNotFound covers both a
// missing key and an unavailable Redis, so the bot restarts the flow.
func (s *Store) Get(ctx context.Context, storeID, userID string) (State, error) {
	if s.rdb == nil {
		return State{}, ErrNotFound
	}
	bs, err := s.rdb.Get(ctx, sessionKey(storeID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNotFound
		}
		return State{}, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(bs, &st); err != nil {
		return State{}, ErrNotFound
	}
	return st, nil
}

// Put stores the state and refreshes the TTL.  Every write restarts the
// idle clock: an active conversation never expires mid-flow.
func (s *Store) Put(ctx context.Context, storeID, userID string, st State) error {
	if s.rdb == nil {
		return nil
	}
	st.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	bs, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(storeID, userID), bs, s.ttl).Err()
}

// Delete drops the state, typically after the reservation is submitted.
func (s *Store) Delete(ctx context.Context, storeID, userID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, sessionKey(storeID, userID)).Err()
}

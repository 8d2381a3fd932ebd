package main

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/stats_dashboard/report"
)

// session is an analysed dataset kept for follow-up requests. It is never
// modified after registration.
type session struct {
	ID      string
	Name    string
	Report  *report.Report
	Table   string // ClickHouse table, empty when the dataset is not stored
	Created time.Time
}

type uploadLink struct {
	chatID  int64
	created time.Time
}

// sessions holds analysed datasets, the last dataset of every Telegram chat
// and web upload links handed out to chats.
type sessions struct {
	mu         sync.RWMutex
	ttl        time.Duration
	now        func() time.Time
	byID       map[string]*session
	lastByChat map[int64]string
	uploads    map[string]uploadLink
}

func newSessions(ttl time.Duration) *sessions {
	return &sessions{
		ttl:        ttl,
		now:        time.Now,
		byID:       map[string]*session{},
		lastByChat: map[int64]string{},
		uploads:    map[string]uploadLink{},
	}
}

func (s *sessions) add(name string, r *report.Report, table string) *session {
	sess := &session{
		ID:      uuid.NewV4().String(),
		Name:    name,
		Report:  r,
		Table:   table,
		Created: s.now(),
	}
	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *sessions) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	return sess, ok
}

func (s *sessions) setLast(chatID int64, id string) {
	s.mu.Lock()
	s.lastByChat[chatID] = id
	s.mu.Unlock()
}

func (s *sessions) last(chatID int64) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lastByChat[chatID]
	if !ok {
		return nil, false
	}
	sess, ok := s.byID[id]
	return sess, ok
}

// linkUpload issues an id that routes a web upload back to chatID.
func (s *sessions) linkUpload(chatID int64) string {
	id := uuid.NewV4().String()
	s.mu.Lock()
	s.uploads[id] = uploadLink{chatID: chatID, created: s.now()}
	s.mu.Unlock()
	return id
}

func (s *sessions) chatForUpload(id string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.uploads[id]
	return link.chatID, ok
}

// expire drops everything older than the ttl and returns the removed
// sessions so their stored tables can be cleaned up.
func (s *sessions) expire() []*session {
	deadline := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*session
	for id, sess := range s.byID {
		if sess.Created.Before(deadline) {
			delete(s.byID, id)
			removed = append(removed, sess)
		}
	}
	for chatID, id := range s.lastByChat {
		if _, ok := s.byID[id]; !ok {
			delete(s.lastByChat, chatID)
		}
	}
	for id, link := range s.uploads {
		if link.created.Before(deadline) {
			delete(s.uploads, id)
		}
	}
	return removed
}

func (s *sessions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

package userstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Статусы пользователя.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

const userKeyPrefix = "user:"

// User — запись о пользователе бота.
type User struct {
	ChatID    int64     `json:"chat_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store хранит пользователей бота во встроенной базе LevelDB.
// Ключ — идентификатор чата, значение — JSON-запись.
type Store struct {
	// mu сериализует Upsert: чтение и перезапись FirstSeen должны
	// быть неделимы.
	mu sync.Mutex
	db *leveldb.DB
}

// Open открывает (или создает) базу по указанному пути.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open user store at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert создает или обновляет запись о пользователе по chat_id.
// FirstSeen существующей записи сохраняется, LastSeen обновляется.
func (s *Store) Upsert(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	existing, found, err := s.ByChatID(u.ChatID)
	if err != nil {
		return err
	}
	if found {
		u.FirstSeen = existing.FirstSeen
	} else {
		u.FirstSeen = now
	}
	u.LastSeen = now
	if u.Status == "" {
		u.Status = StatusActive
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user %d: %w", u.ChatID, err)
	}
	if err := s.db.Put(userKey(u.ChatID), data, nil); err != nil {
		return fmt.Errorf("failed to store user %d: %w", u.ChatID, err)
	}
	return nil
}

// ByChatID возвращает пользователя по идентификатору чата.
func (s *Store) ByChatID(chatID int64) (User, bool, error) {
	data, err := s.db.Get(userKey(chatID), nil)
	if err == leveldb.ErrNotFound {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("failed to read user %d: %w", chatID, err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, false, fmt.Errorf("failed to unmarshal user %d: %w", chatID, err)
	}
	return u, true, nil
}

// Count возвращает количество сохраненных пользователей.
func (s *Store) Count() (int, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(userKeyPrefix)), nil)
	defer it.Release()

	n := 0
	for it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return n, nil
}

func userKey(chatID int64) []byte {
	return []byte(userKeyPrefix + strconv.FormatInt(chatID, 10))
}

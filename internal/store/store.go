// Package store persists generated maps in a LevelDB database. Metadata rows
// live under meta:<id> as JSON, the raw packed tile buffer under tiles:<id>,
// and a monotonic id counter under seq.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound reports a map id with no stored record.
var ErrNotFound = fmt.Errorf("store: map not found")

const (
	metaPrefix  = "meta:"
	tilesPrefix = "tiles:"
	seqKey      = "seq"
)

// MapMeta describes one stored map, without its tile payload.
type MapMeta struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the LevelDB handle.
type Store struct {
	db *leveldb.DB

	// Guards the seq counter read-modify-write.
	mu sync.Mutex
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func metaKey(id uint64) []byte  { return []byte(fmt.Sprintf("%s%020d", metaPrefix, id)) }
func tilesKey(id uint64) []byte { return []byte(fmt.Sprintf("%s%020d", tilesPrefix, id)) }

func (s *Store) nextID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id uint64 = 1
	raw, err := s.db.Get([]byte(seqKey), nil)
	switch err {
	case nil:
		id = binary.BigEndian.Uint64(raw) + 1
	case leveldb.ErrNotFound:
	default:
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	if err := s.db.Put([]byte(seqKey), buf, nil); err != nil {
		return 0, err
	}
	return id, nil
}

// Put inserts a new map and returns its assigned id.
func (s *Store) Put(name string, width, height int, tiles []byte) (uint64, error) {
	id, err := s.nextID()
	if err != nil {
		return 0, fmt.Errorf("store: allocate id: %w", err)
	}
	meta := MapMeta{
		ID:        id,
		Name:      name,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("store: marshal meta: %w", err)
	}
	batch := new(leveldb.Batch)
	batch.Put(metaKey(id), raw)
	batch.Put(tilesKey(id), tiles)
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("store: write map %d: %w", id, err)
	}
	return id, nil
}

// Get returns the metadata for one map.
func (s *Store) Get(id uint64) (MapMeta, error) {
	raw, err := s.db.Get(metaKey(id), nil)
	if err == leveldb.ErrNotFound {
		return MapMeta{}, ErrNotFound
	}
	if err != nil {
		return MapMeta{}, fmt.Errorf("store: get map %d: %w", id, err)
	}
	var meta MapMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return MapMeta{}, fmt.Errorf("store: decode meta %d: %w", id, err)
	}
	return meta, nil
}

// GetTiles returns the packed tile buffer for one map.
func (s *Store) GetTiles(id uint64) ([]byte, error) {
	raw, err := s.db.Get(tilesKey(id), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get tiles %d: %w", id, err)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// UpdateTiles replaces the packed tile buffer of an existing map.
func (s *Store) UpdateTiles(id uint64, tiles []byte) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.db.Put(tilesKey(id), tiles, nil); err != nil {
		return fmt.Errorf("store: update tiles %d: %w", id, err)
	}
	return nil
}

// List returns all map metadata, newest first.
func (s *Store) List() ([]MapMeta, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(metaPrefix)), nil)
	defer iter.Release()

	var maps []MapMeta
	for iter.Next() {
		var meta MapMeta
		if err := json.Unmarshal(iter.Value(), &meta); err != nil {
			return nil, fmt.Errorf("store: decode meta row: %w", err)
		}
		maps = append(maps, meta)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: list maps: %w", err)
	}
	sort.Slice(maps, func(i, j int) bool {
		if !maps[i].CreatedAt.Equal(maps[j].CreatedAt) {
			return maps[i].CreatedAt.After(maps[j].CreatedAt)
		}
		return maps[i].ID > maps[j].ID
	})
	return maps, nil
}

// Delete removes a map and its tiles. Deleting an unknown id returns
// ErrNotFound.
func (s *Store) Delete(id uint64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Delete(metaKey(id))
	batch.Delete(tilesKey(id))
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store: delete map %d: %w", id, err)
	}
	return nil
}

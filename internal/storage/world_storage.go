package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/chunkstream/internal/world"
	"github.com/dgraph-io/badger/v3"
)

// BadgerTerrainStore кэш ландшафта поверх BadgerDB.
// В режиме InMemory на диск ничего не пишется.
type BadgerTerrainStore struct {
	db      *badger.DB
	dbPath  string
	codec   terrainCodec
	mutex   sync.RWMutex
	isReady bool
}

// BadgerOptions параметры открытия хранилища
type BadgerOptions struct {
	Path     string // Каталог данных; игнорируется при InMemory
	InMemory bool
}

// NewBadgerTerrainStore открывает хранилище ландшафта
func NewBadgerTerrainStore(opts BadgerOptions) (*BadgerTerrainStore, error) {
	var bopts badger.Options
	dbPath := ""
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("путь к данным не задан")
		}
		dbPath = filepath.Join(opts.Path, "terrain")
		bopts = badger.DefaultOptions(dbPath)
	}
	bopts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerTerrainStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (s *BadgerTerrainStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.codec.close()
	return s.db.Close()
}

// Save сохраняет ландшафт чанка
func (s *BadgerTerrainStore) Save(ctx context.Context, terrain *world.ChunkTerrain) error {
	if terrain == nil {
		return errors.New("terrain is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStoreClosed
	}

	data, err := s.codec.encode(terrain)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(terrainKey(terrain.Coord), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает ландшафт чанка
func (s *BadgerTerrainStore) Load(ctx context.Context, coord world.ChunkCoord) (*world.ChunkTerrain, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(terrainKey(coord))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	terrain, err := s.codec.decode(data)
	if err != nil {
		return nil, false, err
	}
	return terrain, true, nil
}

// Count возвращает количество записей ландшафта
func (s *BadgerTerrainStore) Count() (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return 0, ErrStoreClosed
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("terrain:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

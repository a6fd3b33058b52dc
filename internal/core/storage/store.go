package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-fileshare/config"
	"github.com/dep2p/go-fileshare/internal/util/logger"
	"github.com/dep2p/go-fileshare/pkg/types"
)

var log = logger.Logger("storage")

// contentPrefix 内容键前缀
var contentPrefix = []byte("c/")

// Store 内容存储
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

// Open 按配置打开内容存储
func Open(cfg config.StorageConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path := cfg.DBPath()
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(cfg.SyncWrites)
	}
	opts = opts.WithLogger(&badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}

	log.Debug("内容存储已打开", "in_memory", cfg.InMemory, "path", opts.Dir)
	return &Store{db: db}, nil
}

func contentKey(key types.ContentKey) []byte {
	out := make([]byte, 0, len(contentPrefix)+len(key))
	out = append(out, contentPrefix...)
	return append(out, key...)
}

// Put 保存内容，已存在时覆盖
func (s *Store) Put(key types.ContentKey, data []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(contentKey(key), data)
	})
}

// Get 读取内容
func (s *Store) Get(key types.ContentKey) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has 检查内容是否存在
func (s *Store) Has(key types.ContentKey) (bool, error) {
	if _, err := s.Get(key); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete 删除内容，不存在时不报错
func (s *Store) Delete(key types.ContentKey) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(contentKey(key))
	})
}

// Keys 返回所有内容键，按字典序
func (s *Store) Keys() ([]types.ContentKey, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var keys []types.ContentKey
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = contentPrefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			keys = append(keys, types.ContentKey(k[len(contentPrefix):]))
		}
		return nil
	})
	return keys, err
}

// Close 关闭存储，可重复调用
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// ============================================================================
//                              badger 日志适配
// ============================================================================

// badgerLogger 将 badger 日志转到 storage 子系统
//
// badger 的 Info 级别输出很多，这里降为 Debug。
type badgerLogger struct{}

func trim(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error(trim(format, args...))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn(trim(format, args...))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug(trim(format, args...))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Debug(trim(format, args...))
}

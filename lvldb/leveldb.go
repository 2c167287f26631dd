// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb stores committed state in goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
)

var _ kv.Store = (*LevelDB)(nil)

const minCacheMB = 16

type Options struct {
	// CacheMB is split between the block cache and the write buffers.
	CacheMB int
	// Sync flushes every block commit to disk before returning.
	Sync bool
}

type LevelDB struct {
	db       *leveldb.DB
	stg      storage.Storage
	writeOpt *opt.WriteOptions
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open storage at %v", path)
	}
	return open(stg, opts)
}

// NewMem opens a database that lives until Close.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cache := max(opts.CacheMB, minCacheMB)
	db, err := leveldb.Open(stg, &opt.Options{
		BlockCacheCapacity: cache / 2 * opt.MiB,
		WriteBuffer:        cache / 4 * opt.MiB,
		Filter:             filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db: db, stg: stg, writeOpt: &opt.WriteOptions{Sync: opts.Sync}}, nil
}

func (l *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, nil)
}

func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, l.writeOpt)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, l.writeOpt)
}

func (l *LevelDB) NewBatch() kv.Batch {
	return &batch{l, new(leveldb.Batch)}
}

// Close closes the database and then its storage, which releases the file lock.
func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil {
		l.stg.Close()
		return err
	}
	return l.stg.Close()
}

type batch struct {
	l *LevelDB
	b *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Write() error {
	return b.l.db.Write(b.b, b.l.writeOpt)
}

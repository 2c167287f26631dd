// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket is a key prefix partitioning one store between several owners.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	out := make([]byte, 0, len(b)+len(k))
	return append(append(out, b...), k...)
}

// NewStore views src through the bucket.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucketPutter{b, src}, src}
}

// NewPutter prefixes writes to w, typically a batch shared by several buckets.
func (b Bucket) NewPutter(w Putter) Putter {
	return bucketPutter{b, w}
}

type bucketPutter struct {
	b Bucket
	w Putter
}

func (p bucketPutter) Put(key, val []byte) error { return p.w.Put(p.b.key(key), val) }
func (p bucketPutter) Delete(key []byte) error   { return p.w.Delete(p.b.key(key)) }

type bucketStore struct {
	bucketPutter
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.b.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }

func (s *bucketStore) NewBatch() Batch {
	batch := s.src.NewBatch()
	return &bucketBatch{bucketPutter{s.b, batch}, batch}
}

type bucketBatch struct {
	bucketPutter
	batch Batch
}

func (bb *bucketBatch) Write() error { return bb.batch.Write() }

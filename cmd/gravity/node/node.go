// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node drives the built-in contracts of a single process devnet: it produces blocks on
// a timer, stands in for the consensus client once a DKG session has run long enough, persists
// the state and publishes the emitted events.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/genesis"
	"github.com/scalarorg/gravity-genesis-contract-sub001/health"
	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "node")

	metricBlocks        = metrics.LazyLoadCounter("node_blocks_count")
	metricEvents        = metrics.LazyLoadCounterVec("node_events_count", []string{"name"})
	metricBlockDuration = metrics.LazyLoadHistogram("node_block_duration_ms", metrics.Bucket10s)
	metricRejected      = metrics.LazyLoadCounter("node_rejected_blocks_count")

	metaBucket = kv.Bucket("meta")
	bestKey    = []byte("best")
)

const maxNetworkAddressLen = 1024

type Options struct {
	BlockInterval time.Duration
	// DKGBlocks is how many blocks a DKG session runs before the node finishes it.
	DKGBlocks uint64
	// Clock returns the wall time; nil means time.Now.
	Clock func() time.Time
	// LogDB indexes the events of every committed block. Optional.
	LogDB *logdb.LogDB
}

// Node owns the built-in system. Writers hold the lock for a whole block, readers go through
// View.
type Node struct {
	mu     sync.RWMutex
	meta   kv.Store
	sys    *builtin.System
	feed   *subscriptions.Feed
	health *health.Health
	opts   Options

	best     uint64
	dkgSince uint64 // block at which the running DKG session was first seen, 0 if none
}

// New opens the system over db, applying gene first when db is empty.
func New(db kv.Store, gene *genesis.Genesis, feed *subscriptions.Feed, h *health.Health, opts Options) (*Node, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DKGBlocks == 0 {
		opts.DKGBlocks = 1
	}
	n := &Node{
		meta:   metaBucket.NewStore(db),
		sys:    builtin.New(state.New(db), builtin.Options{AddressCodec: genesis.BCSAddressCodec{MaxLen: maxNetworkAddressLen}}),
		feed:   feed,
		health: h,
		opts:   opts,
	}

	initialized, err := n.sys.Validators.IsInitialized()
	if err != nil {
		return nil, err
	}
	if initialized {
		if n.best, err = n.loadBest(); err != nil {
			return nil, err
		}
		if err := n.alignLogDB(); err != nil {
			return nil, err
		}
		logger.Info("resumed", "best", n.best)
	} else {
		if err := gene.Apply(n.sys); err != nil {
			return nil, err
		}
		if err := n.commit(0); err != nil {
			return nil, err
		}
		logger.Info("genesis committed", "network", gene.Name())
	}
	if opts.LogDB != nil {
		feed.SetHistory(opts.LogDB)
	}
	h.Bootstrapped()
	return n, nil
}

// View runs fn under the read lock.
func (n *Node) View(fn func(sys *builtin.System) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return fn(n.sys)
}

// Best returns the number of the last committed block.
func (n *Node) Best() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.best
}

// Run produces a block every BlockInterval until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.opts.BlockInterval)
	defer ticker.Stop()

	logger.Info("prepared to produce blocks", "interval", n.opts.BlockInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping block producer")
			return nil
		case <-ticker.C:
			if err := n.Produce(); err != nil {
				if !reverts.IsRevertErr(err) {
					return err
				}
				logger.Error("block rejected", "err", err)
			}
		}
	}
}

// Produce runs one block: the prologue, the DKG stand-in, then commit and publish. A reverted
// prologue rejects the block: nothing is committed and the revert is returned. A reverted DKG
// finish keeps the current epoch and is retried DKGBlocks later. Any other DKG failure discards
// the block and is returned.
func (n *Node) Produce() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	number := n.best + 1

	set, err := n.sys.Validators.ValidatorSet()
	if err != nil {
		return err
	}
	if len(set.Active) == 0 {
		return errors.New("no active validator to propose")
	}
	proposer := set.Active[number%uint64(len(set.Active))]

	last, err := n.sys.Timestamp.NowMicroseconds()
	if err != nil {
		return err
	}
	micros := uint64(n.opts.Clock().UnixMicro())
	if micros <= last {
		micros = last + 1
	}

	rev := n.sys.State().NewCheckpoint()
	if err := n.sys.BlockPrologue(thor.SystemCallerAddress, proposer, nil, micros); err != nil {
		metricRejected().Add(1)
		return errors.Wrapf(err, "block %d rejected", number)
	}
	if err := n.finishDKG(number); err != nil {
		if !reverts.IsRevertErr(err) {
			n.sys.State().RevertTo(rev)
			return errors.Wrapf(err, "block %d: finish dkg", number)
		}
		logger.Warn("finish dkg reverted", "number", number, "err", err)
	}

	if err := n.commit(number); err != nil {
		return err
	}
	metricBlocks().Add(1)
	metricBlockDuration().Observe(time.Since(start).Milliseconds())
	return nil
}

// finishDKG completes the running session once it has been seen for DKGBlocks blocks. The
// transcript commits to the session and the block it completes in.
func (n *Node) finishDKG(number uint64) error {
	session, ok, err := n.sys.DKG.IncompleteSession()
	if err != nil {
		return err
	}
	if !ok {
		n.dkgSince = 0
		return nil
	}
	if n.dkgSince == 0 {
		n.dkgSince = number
		logger.Debug("dkg session observed", "number", number, "dealerEpoch", session.Metadata.DealerEpoch)
	}
	if number-n.dkgSince < n.opts.DKGBlocks {
		return nil
	}

	enc, err := rlp.EncodeToBytes([]uint64{session.Metadata.DealerEpoch, session.StartTime, number})
	if err != nil {
		return err
	}
	transcript := thor.Blake2b(enc)
	n.dkgSince = 0
	return n.sys.FinishWithResult(thor.SystemCallerAddress, transcript.Bytes())
}

func (n *Node) commit(number uint64) error {
	enc, err := rlp.EncodeToBytes(number)
	if err != nil {
		return err
	}
	events, err := n.sys.Commit(func(w kv.Putter) error {
		return errors.Wrap(metaBucket.NewPutter(w).Put(bestKey, enc), "save best block")
	})
	if err != nil {
		return errors.Wrap(err, "commit state")
	}
	n.best = number

	micros, err := n.sys.Timestamp.NowMicroseconds()
	if err != nil {
		return err
	}
	epoch, err := n.sys.Epoch.Current()
	if err != nil {
		return err
	}
	for _, ev := range events {
		metricEvents().AddWithLabel(1, map[string]string{"name": ev.Name})
	}
	n.health.NewBestBlock(number, epoch)
	if n.opts.LogDB != nil {
		if err := n.opts.LogDB.Write(number, micros, events); err != nil {
			return errors.Wrap(err, "index events")
		}
	}
	if err := n.feed.Publish(number, micros, events); err != nil {
		return err
	}

	logger.Debug("block committed", "number", number, "epoch", epoch, "events", len(events))
	return nil
}

func (n *Node) loadBest() (uint64, error) {
	enc, err := n.meta.Get(bestKey)
	if err != nil {
		return 0, errors.Wrap(err, "load best block")
	}
	var number uint64
	if err := rlp.DecodeBytes(enc, &number); err != nil {
		return 0, errors.Wrap(err, "decode best block")
	}
	return number, nil
}

// alignLogDB drops indexed blocks the state never committed. Blocks missing below best stay
// missing; subscribers asking for them get 410.
func (n *Node) alignLogDB() error {
	if n.opts.LogDB == nil {
		return nil
	}
	newest, ok, err := n.opts.LogDB.Newest()
	if err != nil {
		return errors.Wrap(err, "log db newest")
	}
	if !ok || newest < n.best {
		logger.Warn("log db behind state", "indexed", newest, "best", n.best)
		return nil
	}
	if newest > n.best {
		logger.Warn("log db ahead of state, truncating", "indexed", newest, "best", n.best)
		if err := n.opts.LogDB.Truncate(n.best + 1); err != nil {
			return err
		}
	}
	// seed the feed with best so older positions resolve through the index
	b, err := n.opts.LogDB.Block(context.Background(), n.best)
	if err != nil || b == nil {
		return err
	}
	return n.feed.Publish(b.Number, b.Timestamp, b.Events)
}

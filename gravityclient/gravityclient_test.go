// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gravityclient

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/events"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/genesis"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/common"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type backend struct {
	mu  sync.RWMutex
	sys *builtin.System
}

func (b *backend) View(fn func(sys *builtin.System) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(b.sys)
}

func newTestServer(t *testing.T) (*httptest.Server, *subscriptions.Feed) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gene, err := genesis.NewDevnet(3)
	require.NoError(t, err)
	sys := builtin.New(state.New(db), builtin.Options{AddressCodec: genesis.BCSAddressCodec{MaxLen: 256}})
	require.NoError(t, gene.Apply(sys))
	emitted, err := sys.Commit()
	require.NoError(t, err)

	feed := subscriptions.NewFeed(16)
	require.NoError(t, feed.Publish(0, genesis.DevLaunchTime, emitted))
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })
	require.NoError(t, logDB.Write(0, genesis.DevLaunchTime, emitted))

	handler, closeSubs := api.New(&backend{sys: sys}, feed, api.Options{LogDB: logDB, LogsLimit: 100})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		ts.Close()
	})
	return ts, feed
}

func TestClient(t *testing.T) {
	ts, _ := newTestServer(t)
	c := New(ts.URL)
	accs := genesis.DevAccounts()

	list, err := c.Validators()
	require.NoError(t, err)
	require.Len(t, list.Validators, 3)
	assert.Len(t, list.Set.Active, 3)

	v, err := c.Validator(accs[2].Address)
	require.NoError(t, err)
	assert.Equal(t, "genesis-2", v.Moniker)
	assert.Equal(t, "ACTIVE", v.Status)

	_, err = c.Validator(thor.BytesToAddress([]byte("unknown")))
	assert.ErrorIs(t, err, common.ErrNotFound)

	st, err := c.Stake(accs[0].Address, &accs[0].Address)
	require.NoError(t, err)
	require.NotNil(t, st.Holder)
	assert.Equal(t, accs[0].Address, st.Holder.Address)

	epoch, err := c.Epoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), epoch.Epoch)
	assert.False(t, epoch.Reconfiguring)

	dkg, err := c.DKG()
	require.NoError(t, err)
	assert.Nil(t, dkg.InProgress)

	rnd, err := c.Randomness()
	require.NoError(t, err)
	require.NotNil(t, rnd.Current)
	assert.Equal(t, "v2", rnd.Current.Variant)
}

func TestFilterEvents(t *testing.T) {
	ts, _ := newTestServer(t)
	c := New(ts.URL)
	accs := genesis.DevAccounts()

	logs, err := c.FilterEvents(&events.EventFilter{
		CriteriaSet: []*events.EventCriteria{{Name: "ValidatorRegistered"}},
		Order:       logdb.DESC,
	})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, accs[2].Address.String(), logs[0].Fields["validator"])
	assert.Equal(t, genesis.DevLaunchTime, logs[0].Meta.BlockTimestamp)

	_, err = c.FilterEvents(&events.EventFilter{Options: &events.Options{Limit: 101}})
	assert.ErrorIs(t, err, common.ErrNot200Status)
}

func TestRawHTTPGet(t *testing.T) {
	ts, _ := newTestServer(t)
	c := New(ts.URL)

	body, code, err := c.httpConn.RawHTTPGet("/validators/0xnotanaddress")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body)
}

func TestSubscribeEvents(t *testing.T) {
	ts, feed := newTestServer(t)

	_, err := New(ts.URL).SubscribeEvents()
	assert.ErrorIs(t, err, errWSNotConfigured)

	c, err := NewWithWS(ts.URL)
	require.NoError(t, err)

	ch, err := c.SubscribeEvents(Position(0), Named("ValidatorRegistered"))
	require.NoError(t, err)

	next := func() *subscriptions.BlockEvents {
		select {
		case ev := <-ch:
			require.NoError(t, ev.Error)
			return ev.Data
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for block events")
			return nil
		}
	}

	genesisBlock := next()
	assert.Equal(t, uint64(0), genesisBlock.Block)
	assert.Len(t, genesisBlock.Events, 3)

	require.NoError(t, feed.Publish(1, genesis.DevLaunchTime+1, []*state.Event{
		{Address: thor.BytesToAddress([]byte("x")), Name: "Other"},
		{Address: thor.BytesToAddress([]byte("x")), Name: "ValidatorRegistered"},
	}))
	block1 := next()
	assert.Equal(t, uint64(1), block1.Block)
	require.Len(t, block1.Events, 1)
	assert.Equal(t, "ValidatorRegistered", block1.Events[0].Name)
}

func TestNewWithWSInvalidURL(t *testing.T) {
	_, err := NewWithWS("localhost:8669")
	assert.Error(t, err)
}

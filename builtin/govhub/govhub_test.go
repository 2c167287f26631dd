// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package govhub

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// halfway writes a slot, then fails.
type halfway struct {
	state *state.State
}

var (
	halfwayAddr = thor.BytesToAddress([]byte("halfway"))
	halfwaySlot = thor.BytesToBytes32([]byte("slot"))
)

func (h *halfway) UpdateParam(thor.Address, string, []byte) error {
	h.state.SetStorage(halfwayAddr, halfwaySlot, thor.BytesToBytes32([]byte{1}))
	return params.ErrInvalidValue
}

func word(v uint64) []byte {
	return thor.BytesToBytes32(new(big.Int).SetUint64(v).Bytes()).Bytes()
}

func newHub(t *testing.T) (*Hub, *params.Params, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	p := params.New(thor.StakeConfigAddress, st)
	require.NoError(t, p.Initialize(params.DefaultConfig()))
	hub := New(thor.GovHubAddress, st, map[thor.Address]ParamUpdater{
		thor.StakeConfigAddress: p,
		halfwayAddr:             &halfway{st},
	})
	return hub, p, st
}

func TestUpdateParam(t *testing.T) {
	hub, p, _ := newHub(t)

	_, err := hub.UpdateParam(thor.GovHubAddress, Change{Target: thor.StakeConfigAddress, Key: params.KeyVotingPowerIncreaseLimit, Value: word(30)})
	assert.ErrorIs(t, err, ErrOnlyGovernor)

	res, err := hub.UpdateParam(thor.GovernorAddress, Change{Target: thor.StakeConfigAddress, Key: params.KeyVotingPowerIncreaseLimit, Value: word(30)})
	require.NoError(t, err)
	assert.True(t, res.OK())

	cfg, err := p.Config()
	require.NoError(t, err)
	assert.Equal(t, uint64(30), cfg.VotingPowerIncreaseLimit)
}

func TestBestEffort(t *testing.T) {
	hub, p, st := newHub(t)

	results, err := hub.UpdateParams(thor.TimelockAddress, []Change{
		{Target: thor.StakeConfigAddress, Key: "unknown", Value: word(1)},
		{Target: halfwayAddr, Key: "any", Value: word(1)},
		{Target: thor.BytesToAddress([]byte("nobody")), Key: "any", Value: word(1)},
		{Target: thor.StakeConfigAddress, Key: params.KeyVotingPowerIncreaseLimit, Value: word(51)},
		{Target: thor.StakeConfigAddress, Key: params.KeyVotingPowerIncreaseLimit, Value: word(40)},
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.ErrorIs(t, results[0].Err, params.ErrUnknownParam)
	assert.ErrorIs(t, results[1].Err, params.ErrInvalidValue)
	assert.ErrorIs(t, results[2].Err, ErrUnknownTarget)
	assert.ErrorIs(t, results[3].Err, params.ErrInvalidValue)
	assert.True(t, results[4].OK())

	// the failed target's partial write is gone
	v, err := st.GetStorage(halfwayAddr, halfwaySlot)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	cfg, err := p.Config()
	require.NoError(t, err)
	assert.Equal(t, uint64(40), cfg.VotingPowerIncreaseLimit)

	var failed []string
	for _, ev := range st.Events() {
		if ev.Name == "ParamChangeFailed" {
			failed = append(failed, ev.Fields["reason"].(string))
		}
	}
	assert.Equal(t, []string{"UnknownParam", "InvalidValue", "UnknownTarget", "InvalidValue"}, failed)
}

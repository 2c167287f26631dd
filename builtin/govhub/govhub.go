// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package govhub implements the `GovHub` contract, which forwards parameter changes approved by
// governance to the contracts owning them. A failing change is reported, not propagated.
package govhub

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "govhub")

	ErrOnlyGovernor  = reverts.New(reverts.Authorization, "OnlyGovernor", "caller is not the governor or timelock")
	ErrUnknownTarget = reverts.New(reverts.Validation, "UnknownTarget", "no parameter owner at target")
)

// ParamUpdater owns governance parameters.
type ParamUpdater interface {
	UpdateParam(caller thor.Address, key string, value []byte) error
}

// Change is a single parameter change.
type Change struct {
	Target thor.Address
	Key    string
	Value  []byte
}

// Result reports the outcome of a change.
type Result struct {
	Change
	Err error
}

// OK reports whether the change was applied.
func (r Result) OK() bool {
	return r.Err == nil
}

// Hub implements native methods of the `GovHub` contract.
type Hub struct {
	sctx    *solidity.Context
	targets map[thor.Address]ParamUpdater
}

func New(addr thor.Address, state *state.State, targets map[thor.Address]ParamUpdater) *Hub {
	return &Hub{
		sctx:    solidity.NewContext(addr, state),
		targets: targets,
	}
}

func requireGovernor(caller thor.Address) error {
	if caller == thor.GovernorAddress || caller == thor.TimelockAddress {
		return nil
	}
	return errors.Wrapf(ErrOnlyGovernor, "caller %v", caller)
}

// UpdateParam applies one change. The target runs inside a nested checkpoint; on failure only
// its changes are reverted and the failure is returned in the result.
func (h *Hub) UpdateParam(caller thor.Address, change Change) (Result, error) {
	if err := requireGovernor(caller); err != nil {
		return Result{}, err
	}
	return h.apply(change), nil
}

// UpdateParams applies changes in order, continuing past failures.
func (h *Hub) UpdateParams(caller thor.Address, changes []Change) ([]Result, error) {
	if err := requireGovernor(caller); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(changes))
	for _, c := range changes {
		results = append(results, h.apply(c))
	}
	return results, nil
}

func (h *Hub) apply(c Change) Result {
	target, ok := h.targets[c.Target]
	if !ok {
		return h.failed(c, errors.Wrapf(ErrUnknownTarget, "target %v", c.Target))
	}

	st := h.sctx.State()
	rev := st.NewCheckpoint()
	if err := target.UpdateParam(h.sctx.Address(), c.Key, c.Value); err != nil {
		st.RevertTo(rev)
		return h.failed(c, err)
	}

	h.sctx.Emit("ParamChanged", map[string]any{"target": c.Target, "key": c.Key})
	logger.Info("param changed", "target", c.Target, "key", c.Key)
	return Result{Change: c}
}

func (h *Hub) failed(c Change, err error) Result {
	h.sctx.Emit("ParamChangeFailed", map[string]any{
		"target": c.Target,
		"key":    c.Key,
		"reason": reverts.NameOf(err),
	})
	logger.Info("param change failed", "target", c.Target, "key", c.Key, "error", err)
	return Result{Change: c, Err: err}
}

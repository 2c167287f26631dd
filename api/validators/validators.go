// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validators serves the validator registry and stake ledgers.
package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/utils"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Validators struct {
	backend utils.Backend
}

func New(backend utils.Backend) *Validators {
	return &Validators{backend}
}

func (v *Validators) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	var resp ValidatorList
	err := v.backend.View(func(sys *builtin.System) error {
		set, err := sys.Validators.ValidatorSet()
		if err != nil {
			return err
		}
		all, err := sys.Validators.Validators()
		if err != nil {
			return err
		}
		resp.Set = convertSet(set)
		resp.Validators = make([]*Validator, 0, len(all))
		for _, val := range all {
			resp.Validators = append(resp.Validators, convertValidator(val))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (v *Validators) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var resp *Validator
	err = v.backend.View(func(sys *builtin.System) error {
		val, err := sys.Validators.Get(addr)
		if err != nil {
			return err
		}
		if val == nil {
			return utils.NotFound(errors.Errorf("validator %v not registered", addr))
		}
		resp = convertValidator(val)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (v *Validators) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var holder *thor.Address
	if h := req.URL.Query().Get("holder"); h != "" {
		parsed, err := thor.ParseAddress(h)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "holder"))
		}
		holder = &parsed
	}

	var resp *Stake
	err = v.backend.View(func(sys *builtin.System) error {
		val, err := sys.Validators.Get(addr)
		if err != nil {
			return err
		}
		if val == nil {
			return utils.NotFound(errors.Errorf("validator %v not registered", addr))
		}
		ledger := sys.Validators.Ledger(addr)
		st, err := ledger.Stake()
		if err != nil {
			return err
		}
		unlock, err := ledger.UnlockRequest()
		if err != nil {
			return err
		}
		resp = convertStake(ledger.Address(), st, unlock)

		if holder != nil {
			shares, err := ledger.SharesOf(*holder)
			if err != nil {
				return err
			}
			value, err := ledger.SharesToValue(shares)
			if err != nil {
				return err
			}
			claimable, err := ledger.Claimable(*holder)
			if err != nil {
				return err
			}
			resp.Holder = &Holder{
				Address:   *holder,
				Shares:    bigOrZero(shares),
				Value:     bigOrZero(value),
				Claimable: bigOrZero(claimable),
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("validators_list").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidators))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("validators_get_validator").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidator))
	sub.Path("/{address}/stake").
		Methods(http.MethodGet).
		Name("validators_get_stake").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetStake))
}

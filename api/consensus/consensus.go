// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package consensus serves the epoch clock, the DKG sessions and the randomness config.
package consensus

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/utils"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
)

type Consensus struct {
	backend utils.Backend
}

func New(backend utils.Backend) *Consensus {
	return &Consensus{backend}
}

func (c *Consensus) handleGetEpoch(w http.ResponseWriter, _ *http.Request) error {
	var resp Epoch
	err := c.backend.View(func(sys *builtin.System) (err error) {
		if resp.Epoch, err = sys.Epoch.Current(); err != nil {
			return
		}
		if resp.LastTransitionTime, err = sys.Epoch.LastTransitionTime(); err != nil {
			return
		}
		if resp.IntervalMicrosecs, err = sys.Epoch.Interval(); err != nil {
			return
		}
		if resp.Now, err = sys.Timestamp.NowMicroseconds(); err != nil {
			return
		}
		if resp.CanTransition, err = sys.Epoch.CanTransition(); err != nil {
			return
		}
		resp.Reconfiguring, err = sys.DKG.InProgress()
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (c *Consensus) handleGetDKG(w http.ResponseWriter, _ *http.Request) error {
	var resp DKG
	err := c.backend.View(func(sys *builtin.System) error {
		if s, ok, err := sys.DKG.IncompleteSession(); err != nil {
			return err
		} else if ok {
			resp.InProgress = convertSession(s)
		}
		if s, ok, err := sys.DKG.LastCompletedSession(); err != nil {
			return err
		} else if ok {
			resp.LastCompleted = convertSession(s)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (c *Consensus) handleGetRandomness(w http.ResponseWriter, _ *http.Request) error {
	var resp Randomness
	err := c.backend.View(func(sys *builtin.System) error {
		current, err := sys.Randomness.Current()
		if err != nil {
			return err
		}
		resp.Current = convertRandomness(current)

		pending, ok, err := sys.Randomness.Pending()
		if err != nil {
			return err
		}
		if ok {
			resp.Pending = convertRandomness(pending)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, resp)
}

func (c *Consensus) Mount(root *mux.Router, pathPrefix string) {
	root.Path(pathPrefix + "/epoch").
		Methods(http.MethodGet).
		Name("consensus_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetEpoch))
	root.Path(pathPrefix + "/dkg").
		Methods(http.MethodGet).
		Name("consensus_get_dkg").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetDKG))
	root.Path(pathPrefix + "/randomness").
		Methods(http.MethodGet).
		Name("consensus_get_randomness").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetRandomness))
}

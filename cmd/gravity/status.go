// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/consensus"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/validators"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient"
)

type nodeStatus struct {
	Epoch      *consensus.Epoch         `json:"epoch"`
	Set        *validators.ValidatorSet `json:"validatorSet"`
	DKG        *consensus.DKG           `json:"dkg"`
	Randomness *consensus.Randomness    `json:"randomness"`
}

func fetchStatus(c *gravityclient.Client) (*nodeStatus, error) {
	var (
		st  nodeStatus
		err error
	)
	if st.Epoch, err = c.Epoch(); err != nil {
		return nil, err
	}
	list, err := c.Validators()
	if err != nil {
		return nil, err
	}
	st.Set = list.Set
	if st.DKG, err = c.DKG(); err != nil {
		return nil, err
	}
	if st.Randomness, err = c.Randomness(); err != nil {
		return nil, err
	}
	return &st, nil
}

func statusAction(ctx *cli.Context) error {
	initLogger(ctx, os.Stderr)

	url := ctx.String(apiURLFlag.Name)
	c, err := gravityclient.NewWithWS(url)
	if err != nil {
		return errors.Wrapf(err, "api url %q", url)
	}
	st, err := fetchStatus(c)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if !ctx.Bool(followFlag.Name) {
		return nil
	}

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var opts []gravityclient.Option
	if name := ctx.String(eventNameFlag.Name); name != "" {
		opts = append(opts, gravityclient.Named(name))
	}
	if ctx.IsSet(fromFlag.Name) {
		opts = append(opts, gravityclient.Position(ctx.Uint64(fromFlag.Name)))
	}
	return follow(exitCtx, c, os.Stdout, opts...)
}

// follow prints one JSON line per block carrying events until ctx is done or the stream breaks.
func follow(ctx context.Context, c *gravityclient.Client, w io.Writer, opts ...gravityclient.Option) error {
	ch, err := c.SubscribeEvents(opts...)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Error != nil {
				return fmt.Errorf("subscription: %w", ev.Error)
			}
			if len(ev.Data.Events) == 0 {
				continue
			}
			if err := enc.Encode(ev.Data); err != nil {
				return err
			}
		}
	}
}

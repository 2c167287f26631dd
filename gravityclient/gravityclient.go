// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gravityclient is a client of the observer API.
package gravityclient

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/consensus"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/events"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/validators"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/common"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/httpclient"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/wsclient"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Client struct {
	httpConn *httpclient.Client
	wsConn   *wsclient.Client
}

func New(url string) *Client {
	return &Client{
		httpConn: httpclient.New(url),
	}
}

func NewWithWS(url string) (*Client, error) {
	wsClient, err := wsclient.NewClient(url)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpConn: httpclient.New(url),
		wsConn:   wsClient,
	}, nil
}

type Option func(url.Values)

// Position starts the subscription at block pos instead of the next one.
func Position(pos uint64) Option {
	return func(v url.Values) { v.Set("pos", strconv.FormatUint(pos, 10)) }
}

// Emitter keeps events emitted by addr only.
func Emitter(addr thor.Address) Option {
	return func(v url.Values) { v.Set("address", addr.String()) }
}

// Named keeps events called name only.
func Named(name string) Option {
	return func(v url.Values) { v.Set("name", name) }
}

func (c *Client) Validators() (*validators.ValidatorList, error) {
	return c.httpConn.GetValidators()
}

func (c *Client) Validator(addr thor.Address) (*validators.Validator, error) {
	return c.httpConn.GetValidator(addr)
}

func (c *Client) Stake(addr thor.Address, holder *thor.Address) (*validators.Stake, error) {
	return c.httpConn.GetStake(addr, holder)
}

func (c *Client) Epoch() (*consensus.Epoch, error) {
	return c.httpConn.GetEpoch()
}

func (c *Client) DKG() (*consensus.DKG, error) {
	return c.httpConn.GetDKG()
}

func (c *Client) Randomness() (*consensus.Randomness, error) {
	return c.httpConn.GetRandomness()
}

func (c *Client) FilterEvents(filter *events.EventFilter) ([]*events.FilteredEvent, error) {
	return c.httpConn.FilterEvents(filter)
}

// SubscribeEvents requires a client created by NewWithWS.
func (c *Client) SubscribeEvents(opts ...Option) (<-chan common.EventWrapper[*subscriptions.BlockEvents], error) {
	if c.wsConn == nil {
		return nil, errWSNotConfigured
	}
	query := url.Values{}
	for _, o := range opts {
		o(query)
	}
	return c.wsConn.SubscribeEvents(query.Encode())
}

var errWSNotConfigured = errors.New("websocket client not configured")

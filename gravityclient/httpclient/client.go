// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpclient reads validators, stake ledgers, the epoch clock and DKG sessions from
// the observer API.
package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/consensus"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/events"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/validators"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/common"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Client struct {
	url string
	c   *http.Client
}

// New creates a new Client with the provided URL.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{url: url, c: c}
}

// GetValidators retrieves the validator set partition and every registered validator.
func (c *Client) GetValidators() (*validators.ValidatorList, error) {
	var list validators.ValidatorList
	if err := c.getJSON(c.url+"/validators", &list); err != nil {
		return nil, fmt.Errorf("unable to retrieve validators - %w", err)
	}
	return &list, nil
}

// GetValidator retrieves one registry entry.
func (c *Client) GetValidator(addr thor.Address) (*validators.Validator, error) {
	var v validators.Validator
	if err := c.getJSON(c.url+"/validators/"+addr.String(), &v); err != nil {
		return nil, fmt.Errorf("unable to retrieve validator - %w", err)
	}
	return &v, nil
}

// GetStake retrieves the stake ledger of a validator, with the position of holder when given.
func (c *Client) GetStake(addr thor.Address, holder *thor.Address) (*validators.Stake, error) {
	url := c.url + "/validators/" + addr.String() + "/stake"
	if holder != nil {
		url += "?holder=" + holder.String()
	}
	var st validators.Stake
	if err := c.getJSON(url, &st); err != nil {
		return nil, fmt.Errorf("unable to retrieve stake - %w", err)
	}
	return &st, nil
}

// GetEpoch retrieves the epoch clock.
func (c *Client) GetEpoch() (*consensus.Epoch, error) {
	var e consensus.Epoch
	if err := c.getJSON(c.url+"/epoch", &e); err != nil {
		return nil, fmt.Errorf("unable to retrieve epoch - %w", err)
	}
	return &e, nil
}

// GetDKG retrieves the running and the last completed DKG sessions.
func (c *Client) GetDKG() (*consensus.DKG, error) {
	var d consensus.DKG
	if err := c.getJSON(c.url+"/dkg", &d); err != nil {
		return nil, fmt.Errorf("unable to retrieve dkg - %w", err)
	}
	return &d, nil
}

// GetRandomness retrieves the current and pending randomness configs.
func (c *Client) GetRandomness() (*consensus.Randomness, error) {
	var r consensus.Randomness
	if err := c.getJSON(c.url+"/randomness", &r); err != nil {
		return nil, fmt.Errorf("unable to retrieve randomness - %w", err)
	}
	return &r, nil
}

// FilterEvents queries the event index.
func (c *Client) FilterEvents(filter *events.EventFilter) ([]*events.FilteredEvent, error) {
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal filter - %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.url+"/logs/event", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var logs []*events.FilteredEvent
	if err := c.doJSON(req, &logs); err != nil {
		return nil, fmt.Errorf("unable to filter events - %w", err)
	}
	return logs, nil
}

// RawHTTPGet sends a raw HTTP GET request to the specified path.
func (c *Client) RawHTTPGet(path string) ([]byte, int, error) {
	res, err := c.c.Get(c.url + path)
	if err != nil {
		return nil, 0, fmt.Errorf("error performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading response body: %w", err)
	}
	return body, res.StatusCode, nil
}

func (c *Client) getJSON(url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	res, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return common.ErrNotFound
	default:
		return fmt.Errorf("http error - Status Code %d - %s - %w", res.StatusCode, body, common.ErrNot200Status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unable to unmarshal response - %w", err)
	}
	return nil
}

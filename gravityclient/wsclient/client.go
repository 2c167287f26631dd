// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/gravityclient/common"
)

type Client struct {
	host   string
	scheme string
}

func NewClient(url string) (*Client, error) {
	var host string
	var scheme string

	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "wss://") {
		host = strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "wss://")
		scheme = "wss"
	} else if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "ws://") {
		host = strings.TrimPrefix(strings.TrimPrefix(url, "http://"), "ws://")
		scheme = "ws"
	} else {
		return nil, fmt.Errorf("invalid url")
	}

	return &Client{
		host:   strings.TrimSuffix(host, "/"),
		scheme: scheme,
	}, nil
}

// SubscribeEvents streams the events of every block from the position given in query.
func (c *Client) SubscribeEvents(query string) (<-chan common.EventWrapper[*subscriptions.BlockEvents], error) {
	conn, err := c.connect("/subscriptions/events", query)
	if err != nil {
		return nil, fmt.Errorf("unable to connect - %w", err)
	}

	return subscribe[subscriptions.BlockEvents](conn), nil
}

// subscribe pumps JSON messages of type T from conn until it fails, then sends the error and
// closes the channel.
func subscribe[T any](conn *websocket.Conn) <-chan common.EventWrapper[*T] {
	eventChan := make(chan common.EventWrapper[*T])

	go func() {
		defer close(eventChan)
		defer conn.Close()

		for {
			var data T
			if err := conn.ReadJSON(&data); err != nil {
				eventChan <- common.EventWrapper[*T]{Error: fmt.Errorf("%w: %w", common.ErrUnexpectedMsg, err)}
				return
			}
			eventChan <- common.EventWrapper[*T]{Data: &data}
		}
	}()

	return eventChan
}

func (c *Client) connect(endpoint, rawQuery string) (*websocket.Conn, error) {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     c.host,
		Path:     endpoint,
		RawQuery: rawQuery,
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed built-in events over websocket.
package subscriptions

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/utils"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const (
	// time allowed to write a message
	writeWait = 10 * time.Second
	// time allowed to read the next pong
	pongWait = 60 * time.Second
	// must be less than pongWait
	pingPeriod = (pongWait * 7) / 10
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	errEvicted = errors.New("position out of backlog")

	metricActiveSubscriptions = metrics.LazyLoadGauge("api_active_subscriptions_count")
	metricHistoryReads        = metrics.LazyLoadCounter("api_subscriptions_history_reads_count")
)

// EventFilter selects events by emitting contract and name. Zero fields match anything.
type EventFilter struct {
	Address *thor.Address
	Name    string
}

func (f *EventFilter) match(ev *state.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	return f.Name == "" || f.Name == ev.Name
}

func (f *EventFilter) apply(b *BlockEvents) *BlockEvents {
	out := &BlockEvents{Block: b.Block, Timestamp: b.Timestamp, Events: []*state.Event{}}
	for _, ev := range b.Events {
		if f.match(ev) {
			out.Events = append(out.Events, ev)
		}
	}
	return out
}

type Subscriptions struct {
	feed     *Feed
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the handler. origins lists the allowed websocket origins, "*" allows any.
func New(feed *Feed, origins []string) *Subscriptions {
	return &Subscriptions{
		feed: feed,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range origins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func parseFilter(req *http.Request) (*EventFilter, error) {
	filter := &EventFilter{Name: req.URL.Query().Get("name")}
	if s := req.URL.Query().Get("address"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "address")
		}
		filter.Address = &addr
	}
	return filter, nil
}

func (s *Subscriptions) parsePosition(req *http.Request) (uint64, error) {
	p := req.URL.Query().Get("pos")
	if p == "" {
		return s.feed.Next(), nil
	}
	pos, err := strconv.ParseUint(p, 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "pos")
	}
	if pos > s.feed.Next() {
		return 0, errors.New("pos: beyond the next block")
	}
	return pos, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	pos, err := s.parsePosition(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	if _, _, err := s.feed.Get(pos); err != nil {
		return utils.HTTPError(err, http.StatusGone)
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	s.wg.Go(func() {
		metricActiveSubscriptions().Add(1)
		defer metricActiveSubscriptions().Add(-1)
		defer conn.Close()
		if err := s.pipe(conn, pos, filter); err != nil {
			logger.Debug("subscription closed", "err", err)
			msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	})
	return nil
}

// pipe streams blocks from pos until the peer goes away, the feed evicts the position or the
// server closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, pos uint64, filter *EventFilter) error {
	closed := make(chan struct{})
	// the read loop handles pongs and detects the peer closing
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	waiter := s.feed.waiter()
	for {
		for {
			b, ok, err := s.feed.Get(pos)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(filter.apply(b)); err != nil {
				return nil
			}
			pos++
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-waiter.C():
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}

// Close terminates every open subscription and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}

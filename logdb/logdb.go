// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes committed built-in events in sqlite so they can be filtered and replayed
// after the in-memory feed dropped them.
package logdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const schema = `
CREATE TABLE IF NOT EXISTS block (
	number INTEGER PRIMARY KEY,
	time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event (
	blockNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	address BLOB NOT NULL,
	name TEXT NOT NULL,
	fields BLOB,
	PRIMARY KEY (blockNumber, eventIndex)
);

CREATE INDEX IF NOT EXISTS eventAddressIndex ON event(address);
CREATE INDEX IF NOT EXISTS eventNameIndex ON event(name);
`

const selectEvents = "SELECT e.blockNumber, b.time, e.eventIndex, e.address, e.name, e.fields FROM event e JOIN block b ON b.number = e.blockNumber"

var logger = log.WithContext("pkg", "logdb")

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens the log db at path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// every connection to an in-memory database sees its own copy
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("log db opened", "path", path, "sqlite", driverVer)
	return &LogDB{path, db, driverVer}, nil
}

// NewMem creates a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// Newest returns the number of the newest written block. ok is false for an empty db.
func (db *LogDB) Newest() (number uint64, ok bool, err error) {
	var n sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(number) FROM block").Scan(&n); err != nil {
		return 0, false, err
	}
	if !n.Valid {
		return 0, false, nil
	}
	return uint64(n.Int64), true, nil
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Write records the events of one block, replacing anything stored for it before.
func (db *LogDB) Write(number, timestamp uint64, events []*state.Event) error {
	if number > math.MaxInt64 || timestamp > math.MaxInt64 {
		return errors.Errorf("block %d at %d out of range", number, timestamp)
	}
	start := time.Now()
	err := db.execInTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM event WHERE blockNumber = ?", int64(number)); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO block(number, time) VALUES (?, ?)", int64(number), int64(timestamp)); err != nil {
			return err
		}
		for i, ev := range events {
			fields, err := json.Marshal(ev.Fields)
			if err != nil {
				return errors.Wrapf(err, "event %d fields", i)
			}
			if _, err := tx.Exec("INSERT INTO event(blockNumber, eventIndex, address, name, fields) VALUES (?, ?, ?, ?, ?)",
				int64(number),
				i,
				ev.Address.Bytes(),
				ev.Name,
				fields,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "write block %d", number)
	}
	metricWriteDuration().Observe(time.Since(start).Milliseconds())
	return nil
}

// Truncate deletes every block from number on.
func (db *LogDB) Truncate(number uint64) error {
	if number > math.MaxInt64 {
		return nil
	}
	return db.execInTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM event WHERE blockNumber >= ?", int64(number)); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM block WHERE number >= ?", int64(number))
		return err
	})
}

// Block returns the events of block number, or nil when it was never written.
func (db *LogDB) Block(ctx context.Context, number uint64) (*Block, error) {
	if number > math.MaxInt64 {
		return nil, nil
	}
	var ts int64
	err := db.db.QueryRowContext(ctx, "SELECT time FROM block WHERE number = ?", int64(number)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	events, err := db.queryEvents(ctx, selectEvents+" WHERE e.blockNumber = ? ORDER BY e.eventIndex ASC", int64(number))
	if err != nil {
		return nil, err
	}
	b := &Block{Number: number, Timestamp: uint64(ts), Events: make([]*state.Event, 0, len(events))}
	for _, ev := range events {
		b.Events = append(b.Events, &state.Event{Address: ev.Address, Name: ev.Name, Fields: ev.Fields})
	}
	return b, nil
}

// FilterEvents queries events with filter. A nil filter returns every event.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, selectEvents+" ORDER BY e.blockNumber ASC, e.eventIndex ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := selectEvents + " WHERE 1"
	if filter.Range != nil {
		from, to := clamp(filter.Range.From), clamp(filter.Range.To)
		args = append(args, from)
		stmt += " AND e.blockNumber >= ?"
		if to >= from {
			args = append(args, to)
			stmt += " AND e.blockNumber <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND ( ( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND e.address = ?"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND e.name = ?"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += " )"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY e.blockNumber DESC, e.eventIndex DESC"
	} else {
		stmt += " ORDER BY e.blockNumber ASC, e.eventIndex ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, clamp(filter.Options.Offset), clamp(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

func clamp(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockNumber int64
			blockTime   int64
			index       uint32
			address     []byte
			name        string
			fields      []byte
		)
		if err := rows.Scan(&blockNumber, &blockTime, &index, &address, &name, &fields); err != nil {
			return nil, err
		}
		ev := &Event{
			BlockNumber: uint64(blockNumber),
			BlockTime:   uint64(blockTime),
			Index:       index,
			Address:     thor.BytesToAddress(address),
			Name:        name,
		}
		if ev.Fields, err = decodeFields(fields); err != nil {
			return nil, errors.Wrapf(err, "block %d event %d", blockNumber, index)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// decodeFields keeps numbers as json.Number so amounts survive the round trip.
func decodeFields(data []byte) (map[string]any, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

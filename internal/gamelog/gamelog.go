// Package gamelog is a per-process append-only move/analysis log, keyed by
// game id, persisted with badger (SPEC_FULL.md §6 "internal/gamelog
// (domain-stack)"). This is pure write-behind telemetry: nothing here is
// ever read back to resume a search or a position, so it does not violate
// "no recoverable persistence of search state across process restarts" —
// it exists only so a post-game tool can replay what the engine actually
// thought at each move.
//
// Grounded on the teacher's internal/storage/storage.go: badger.Open with
// logging disabled, JSON-marshaled values under namespaced keys, one
// exported method per record kind. Generalized from user-preferences/stats
// singleton keys to a monotonically increasing sequence per game id, since
// a game log is an append-only stream rather than a single overwritten
// document.
package gamelog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/core"
)

// Record is one genMove call's worth of telemetry (spec.md §6 Gomocup's
// "writes one record per genMove call (position hash, move, principal
// variation, visit count, winrate)").
type Record struct {
	GameID       string       `json:"game_id"`
	Seq          uint64       `json:"seq"`
	PositionHash core.Hash128 `json:"position_hash"`
	Move         board.Loc    `json:"move"`
	PV           []board.Loc  `json:"pv"`
	Visits       int64        `json:"visits"`
	Winrate      float64      `json:"winrate"`
}

// Log wraps a badger database for append-only game records. Optional:
// protocol.Gomocup only writes to one when a log directory is configured.
type Log struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at dir.
func Open(dir string) (*Log, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Append writes one record, assigning it the next sequence number for its
// game id. Returns the assigned sequence number.
func (l *Log) Append(gameID string, r Record) (uint64, error) {
	var seq uint64
	err := l.db.Update(func(txn *badger.Txn) error {
		next, err := l.nextSeq(txn, gameID)
		if err != nil {
			return err
		}
		seq = next
		r.GameID = gameID
		r.Seq = seq

		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if err := txn.Set(recordKey(gameID, seq), data); err != nil {
			return err
		}
		return txn.Set(seqKey(gameID), encodeUint64(seq+1))
	})
	return seq, err
}

// Records returns every record logged for gameID, in append order.
func (l *Log) Records(gameID string) ([]Record, error) {
	var records []Record
	prefix := recordPrefix(gameID)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var r Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

func (l *Log) nextSeq(txn *badger.Txn, gameID string) (uint64, error) {
	item, err := txn.Get(seqKey(gameID))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		seq = decodeUint64(val)
		return nil
	})
	return seq, err
}

func recordPrefix(gameID string) []byte {
	return []byte(fmt.Sprintf("game:%s:move:", gameID))
}

func recordKey(gameID string, seq uint64) []byte {
	return append(recordPrefix(gameID), encodeUint64(seq)...)
}

func seqKey(gameID string) []byte {
	return []byte(fmt.Sprintf("game:%s:seq", gameID))
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainblockchain/worldstate/backend/snapshot"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// See https://www.sqlite.org/pragma.html
	kConfigureConnection = []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
)

const (
	kCreateSnapshotTable = "CREATE TABLE IF NOT EXISTS snapshot (block INT PRIMARY KEY, root_hash BLOB, data BLOB)"
	kPutSnapshotStmt     = "INSERT OR REPLACE INTO snapshot(block, root_hash, data) VALUES (?,?,?)"
	kGetSnapshotStmt     = "SELECT root_hash, data FROM snapshot WHERE block = ?"
	kGetLatestBlockStmt  = "SELECT block FROM snapshot ORDER BY block DESC LIMIT 1"
	kGetBlocksStmt       = "SELECT block FROM snapshot ORDER BY block ASC"
	kDeleteSnapshotStmt  = "DELETE FROM snapshot WHERE block = ?"
)

// Store is a snapshot store backed by an SQLite database file.
type Store struct {
	db                 *sql.DB
	putSnapshotStmt    *sql.Stmt
	getSnapshotStmt    *sql.Stmt
	getLatestBlockStmt *sql.Stmt
	getBlocksStmt      *sql.Stmt
	deleteSnapshotStmt *sql.Stmt
}

// Open opens or creates an SQLite based snapshot store in the given file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite; %w", err)
	}
	res, err := initialize(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return res, nil
}

func initialize(db *sql.DB) (*Store, error) {
	for _, cmd := range kConfigureConnection {
		if _, err := db.Exec(cmd); err != nil {
			return nil, fmt.Errorf("failed to configure connection with %s; %w", cmd, err)
		}
	}
	if _, err := db.Exec(kCreateSnapshotTable); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table; %w", err)
	}
	res := &Store{db: db}
	stmts := []struct {
		stmt **sql.Stmt
		sql  string
	}{
		{&res.putSnapshotStmt, kPutSnapshotStmt},
		{&res.getSnapshotStmt, kGetSnapshotStmt},
		{&res.getLatestBlockStmt, kGetLatestBlockStmt},
		{&res.getBlocksStmt, kGetBlocksStmt},
		{&res.deleteSnapshotStmt, kDeleteSnapshotStmt},
	}
	for _, cur := range stmts {
		stmt, err := db.Prepare(cur.sql)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare %s; %w", cur.sql, err)
		}
		*cur.stmt = stmt
	}
	return res, nil
}

func (s *Store) Put(record snapshot.Record) error {
	_, err := s.putSnapshotStmt.Exec(int64(record.Block), record.RootHash[:], record.Data)
	return err
}

func (s *Store) Get(block uint64) (snapshot.Record, error) {
	var hash, data []byte
	err := s.getSnapshotStmt.QueryRow(int64(block)).Scan(&hash, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Record{}, fmt.Errorf("%w: block %d", snapshot.NotFound, block)
	}
	if err != nil {
		return snapshot.Record{}, err
	}
	res := snapshot.Record{Block: block, Data: data}
	if len(hash) != len(res.RootHash) {
		return snapshot.Record{}, fmt.Errorf("invalid root hash of block %d: %x", block, hash)
	}
	copy(res.RootHash[:], hash)
	return res, nil
}

func (s *Store) GetLatestBlock() (uint64, bool, error) {
	var block int64
	err := s.getLatestBlockStmt.QueryRow().Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(block), false, nil
}

func (s *Store) GetBlocks() ([]uint64, error) {
	rows, err := s.getBlocksStmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []uint64{}
	for rows.Next() {
		var block int64
		if err := rows.Scan(&block); err != nil {
			return nil, err
		}
		res = append(res, uint64(block))
	}
	return res, rows.Err()
}

func (s *Store) Delete(block uint64) error {
	_, err := s.deleteSnapshotStmt.Exec(int64(block))
	return err
}

func (s *Store) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{
		s.putSnapshotStmt,
		s.getSnapshotStmt,
		s.getLatestBlockStmt,
		s.getBlocksStmt,
		s.deleteSnapshotStmt,
	} {
		errs = append(errs, stmt.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

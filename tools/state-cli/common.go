// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/backend/snapshot/ldb"
	"github.com/ainblockchain/worldstate/backend/snapshot/sqlite"
	"github.com/ainblockchain/worldstate/database"
	"github.com/urfave/cli/v2"
)

const (
	ldbStore    = "ldb"
	sqliteStore = "sqlite"
)

var (
	storeFlag = cli.StringFlag{
		Name:     "store",
		Usage:    "the snapshot store, a LevelDB directory or a SQLite file",
		Required: true,
	}
	storeTypeFlag = cli.StringFlag{
		Name:  "store-type",
		Usage: "the type of the snapshot store, ldb or sqlite",
		Value: ldbStore,
	}
	blockFlag = cli.Uint64Flag{
		Name:  "block",
		Usage: "the block of the snapshot, the latest block if not set",
	}
	paramsFlag = cli.StringFlag{
		Name:  "params",
		Usage: "a YAML file with database parameters",
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
)

// openStore opens a snapshot store of the given type.
func openStore(storeType, path string) (snapshot.Store, error) {
	switch storeType {
	case ldbStore:
		return ldb.Open(path, nil)
	case sqliteStore:
		return sqlite.Open(path)
	}
	return nil, fmt.Errorf("unknown store type %q, supported are %q and %q", storeType, ldbStore, sqliteStore)
}

// closeStore closes the store, reporting the failure through err unless an
// earlier error is already recorded.
func closeStore(store snapshot.Store, path string, err *error) {
	log.Printf("Closing snapshot store in %v ...", path)
	if closeError := store.Close(); closeError != nil {
		if *err == nil {
			*err = closeError
		} else {
			log.Printf("Failure closing store: %v", closeError)
		}
	}
}

func loadParams(ctx *cli.Context) (database.Params, error) {
	file := ctx.String(paramsFlag.Name)
	if file == "" {
		return database.DefaultParams(), nil
	}
	return database.LoadParams(file)
}

// selectBlock picks the block addressed by the block flag or the latest
// block recorded in the store.
func selectBlock(ctx *cli.Context, store snapshot.Store) (uint64, error) {
	if ctx.IsSet(blockFlag.Name) {
		return ctx.Uint64(blockFlag.Name), nil
	}
	block, empty, err := store.GetLatestBlock()
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, fmt.Errorf("the store contains no snapshots")
	}
	return block, nil
}

// loadDatabase restores a database from the snapshot selected by the block
// flag. The snapshot is verified against its recorded root hash.
func loadDatabase(ctx *cli.Context, store snapshot.Store) (database.Database, uint64, error) {
	params, err := loadParams(ctx)
	if err != nil {
		return nil, 0, err
	}
	block, err := selectBlock(ctx, store)
	if err != nil {
		return nil, 0, err
	}
	db, err := database.New(params)
	if err != nil {
		return nil, 0, err
	}
	log.Printf("Loading snapshot of block %d ...", block)
	if err := db.LoadSnapshot(store, block); err != nil {
		return nil, 0, err
	}
	return db, block, nil
}

func printJson(obj any) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}

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
	"fmt"
	"log"
	"time"

	"github.com/ainblockchain/worldstate/database"
	"github.com/urfave/cli/v2"
)

var (
	srcStoreFlag = cli.StringFlag{
		Name:     "src-store",
		Usage:    "the source of the synchronization",
		Required: true,
	}
	srcStoreTypeFlag = cli.StringFlag{
		Name:  "src-type",
		Usage: "the type of the source store, ldb or sqlite",
		Value: ldbStore,
	}
	trgStoreFlag = cli.StringFlag{
		Name:     "trg-store",
		Usage:    "the target of the synchronization",
		Required: true,
	}
	trgStoreTypeFlag = cli.StringFlag{
		Name:  "trg-type",
		Usage: "the type of the target store, ldb or sqlite",
		Value: ldbStore,
	}
)

var syncCommand = cli.Command{
	Action: sync,
	Name:   "sync",
	Usage:  "copies all verified snapshots of one store into another",
	Flags: []cli.Flag{
		&srcStoreFlag,
		&srcStoreTypeFlag,
		&trgStoreFlag,
		&trgStoreTypeFlag,
		&paramsFlag,
		&cpuProfilingFlag,
	},
}

func sync(ctx *cli.Context) (err error) {

	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	params, err := loadParams(ctx)
	if err != nil {
		return err
	}

	srcPath := ctx.String(srcStoreFlag.Name)
	log.Printf("Opening source store in %v ...", srcPath)
	source, err := openStore(ctx.String(srcStoreTypeFlag.Name), srcPath)
	if err != nil {
		return err
	}
	defer closeStore(source, srcPath, &err)

	trgPath := ctx.String(trgStoreFlag.Name)
	log.Printf("Opening target store in %v ...", trgPath)
	target, err := openStore(ctx.String(trgStoreTypeFlag.Name), trgPath)
	if err != nil {
		return err
	}
	defer closeStore(target, trgPath, &err)

	blocks, err := source.GetBlocks()
	if err != nil {
		return err
	}

	log.Printf("Synching %d snapshots ...", len(blocks))
	start := time.Now()
	for _, block := range blocks {
		sourceRecord, err := source.Get(block)
		if err != nil {
			return err
		}
		db, err := database.New(params)
		if err != nil {
			return err
		}
		if err := db.LoadSnapshot(source, block); err != nil {
			return err
		}
		if err := db.SaveSnapshot(target, block); err != nil {
			return err
		}
		targetRecord, err := target.Get(block)
		if err != nil {
			return err
		}
		if sourceRecord.RootHash != targetRecord.RootHash {
			return fmt.Errorf("sync of block %d failed, hashes are not equivalent", block)
		}
		fmt.Printf("Block %d state hash: %v\n", block, targetRecord.RootHash)
	}

	log.Printf("Synching complete")
	log.Printf("Synching took %.1f seconds", time.Since(start).Seconds())
	return nil
}

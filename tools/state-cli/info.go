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

	"github.com/ainblockchain/worldstate/database"
	"github.com/urfave/cli/v2"
)

var getInfoCommand = cli.Command{
	Action: getInfo,
	Name:   "info",
	Usage:  "prints summary information about a snapshot store",
	Flags: []cli.Flag{
		&storeFlag,
		&storeTypeFlag,
		&blockFlag,
		&paramsFlag,
	},
}

func getInfo(ctx *cli.Context) (err error) {
	path := ctx.String(storeFlag.Name)
	log.Printf("Opening snapshot store in %v ...", path)
	store, err := openStore(ctx.String(storeTypeFlag.Name), path)
	if err != nil {
		return err
	}
	defer closeStore(store, path, &err)

	blocks, err := store.GetBlocks()
	if err != nil {
		return err
	}
	fmt.Printf("Snapshots: %d\n", len(blocks))
	if len(blocks) == 0 {
		return nil
	}
	fmt.Printf("Blocks: %d - %d\n", blocks[0], blocks[len(blocks)-1])

	db, block, err := loadDatabase(ctx, store)
	if err != nil {
		return err
	}
	record, err := store.Get(block)
	if err != nil {
		return err
	}
	fmt.Printf("Block: %d\n", block)
	fmt.Printf("State hash: %v\n", record.RootHash)
	fmt.Printf("Snapshot size: %d bytes\n", len(record.Data))

	for _, label := range []string{database.ValuesLabel, database.RulesLabel, database.OwnersLabel, database.FunctionsLabel} {
		usage, err := db.GetStateUsageAtPath("/" + label)
		if err != nil {
			return err
		}
		fmt.Printf("%-9s height %d, nodes %d, bytes %d\n", label+":", usage.TreeHeight, usage.TreeSize, usage.TreeBytes)
	}
	fmt.Printf("Memory: %v\n", db.GetMemoryFootprint().Total())
	return nil
}

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

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/database"
	"github.com/ainblockchain/worldstate/database/statetree"
	"github.com/urfave/cli/v2"
)

var inFlag = cli.StringFlag{
	Name:     "in",
	Usage:    "the JSON file holding the state to import",
	Required: true,
}

var importCommand = cli.Command{
	Action: importState,
	Name:   "import",
	Usage:  "records a JSON state as snapshot of a block",
	Flags: []cli.Flag{
		&storeFlag,
		&storeTypeFlag,
		&blockFlag,
		&paramsFlag,
		&inFlag,
	},
}

func importState(ctx *cli.Context) (err error) {
	if !ctx.IsSet(blockFlag.Name) {
		return fmt.Errorf("the block of the imported state is required")
	}
	block := ctx.Uint64(blockFlag.Name)

	in := ctx.String(inFlag.Name)
	log.Printf("Reading state from %v ...", in)
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	var state any
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse %v: %w", in, err)
	}
	if invalid, ok := statetree.ValidateObject(state); !ok {
		return fmt.Errorf("invalid state object at %v", invalid)
	}
	if _, isDict := state.(map[string]any); !isDict {
		return fmt.Errorf("the state must be a JSON object")
	}

	forest := statetree.NewForest()
	root, err := forest.BuildTree(state, "import")
	if err != nil {
		return err
	}
	record := snapshot.Record{
		Block:    block,
		RootHash: forest.ProofHash(root),
		Data:     data,
	}
	fmt.Printf("State hash: %v\n", record.RootHash)

	path := ctx.String(storeFlag.Name)
	log.Printf("Opening snapshot store in %v ...", path)
	store, err := openStore(ctx.String(storeTypeFlag.Name), path)
	if err != nil {
		return err
	}
	defer closeStore(store, path, &err)

	if err := store.Put(record); err != nil {
		return err
	}

	log.Printf("Verifying snapshot of block %d ...", block)
	params, err := loadParams(ctx)
	if err != nil {
		return err
	}
	db, err := database.New(params)
	if err != nil {
		return err
	}
	return db.LoadSnapshot(store, block)
}

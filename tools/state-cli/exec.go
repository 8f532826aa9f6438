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
	"os"
	"time"

	"github.com/ainblockchain/worldstate/database"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	txsFlag = cli.StringFlag{
		Name:     "txs",
		Usage:    "a YAML or JSON file listing the transactions to apply",
		Required: true,
	}
	targetBlockFlag = cli.Uint64Flag{
		Name:  "target-block",
		Usage: "the block to record the resulting snapshot for, the next block if not set",
	}
)

var execCommand = cli.Command{
	Action: execTransactions,
	Name:   "exec",
	Usage:  "applies transactions to a snapshot and records the resulting state",
	Flags: []cli.Flag{
		&storeFlag,
		&storeTypeFlag,
		&blockFlag,
		&paramsFlag,
		&txsFlag,
		&targetBlockFlag,
		&cpuProfilingFlag,
	},
}

func readTransactions(file string) ([]database.Transaction, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var txs []database.Transaction
	if err := yaml.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("failed to parse transactions in %v: %w", file, err)
	}
	return txs, nil
}

func execTransactions(ctx *cli.Context) (err error) {
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	txs, err := readTransactions(ctx.String(txsFlag.Name))
	if err != nil {
		return err
	}

	path := ctx.String(storeFlag.Name)
	log.Printf("Opening snapshot store in %v ...", path)
	store, err := openStore(ctx.String(storeTypeFlag.Name), path)
	if err != nil {
		return err
	}
	defer closeStore(store, path, &err)

	db, block, err := loadDatabase(ctx, store)
	if err != nil {
		return err
	}
	target := block + 1
	if ctx.IsSet(targetBlockFlag.Name) {
		target = ctx.Uint64(targetBlockFlag.Name)
	}

	log.Printf("Applying %d transactions ...", len(txs))
	start := time.Now()
	failed := 0
	for i, tx := range txs {
		res := db.ExecuteTransaction(tx)
		if res.IsFailure() {
			failed++
			log.Printf("Transaction %d (%v) failed", i, tx.Hash)
		}
		if err := printJson(res); err != nil {
			return err
		}
	}
	log.Printf("Applied %d transactions, %d failed, in %.1f seconds", len(txs), failed, time.Since(start).Seconds())

	if err := db.Finalize(); err != nil {
		return err
	}
	if err := db.SaveSnapshot(store, target); err != nil {
		return err
	}
	hash, _, err := db.GetProofHash("/")
	if err != nil {
		return err
	}
	fmt.Printf("State hash of block %d: %v\n", target, hash)
	return nil
}

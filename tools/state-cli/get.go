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

	"github.com/ainblockchain/worldstate/database"
	"github.com/urfave/cli/v2"
)

var (
	pathFlag = cli.StringFlag{
		Name:  "path",
		Usage: "the path to read",
		Value: "/",
	}
	kindFlag = cli.StringFlag{
		Name:  "kind",
		Usage: "the kind of state to read, one of value, rule, owner and function",
		Value: "value",
	}
	proofFlag = cli.BoolFlag{
		Name:  "proof",
		Usage: "include the proof hashes of all nodes",
	}
	treeInfoFlag = cli.BoolFlag{
		Name:  "tree-info",
		Usage: "include the height, size and bytes of all subtrees",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "the file to write to, stdout if not set",
	}
)

var getCommand = cli.Command{
	Action: get,
	Name:   "get",
	Usage:  "prints the state at a path of a snapshot",
	Flags: []cli.Flag{
		&storeFlag,
		&storeTypeFlag,
		&blockFlag,
		&paramsFlag,
		&pathFlag,
		&kindFlag,
		&proofFlag,
		&treeInfoFlag,
	},
}

var exportCommand = cli.Command{
	Action: export,
	Name:   "export",
	Usage:  "exports the complete state of a snapshot as JSON",
	Flags: []cli.Flag{
		&storeFlag,
		&storeTypeFlag,
		&blockFlag,
		&paramsFlag,
		&outFlag,
	},
}

func get(ctx *cli.Context) (err error) {
	path := ctx.String(storeFlag.Name)
	store, err := openStore(ctx.String(storeTypeFlag.Name), path)
	if err != nil {
		return err
	}
	defer closeStore(store, path, &err)

	db, _, err := loadDatabase(ctx, store)
	if err != nil {
		return err
	}
	opts := database.ReadOptions{
		IncludeProof:    ctx.Bool(proofFlag.Name),
		IncludeTreeInfo: ctx.Bool(treeInfoFlag.Name),
	}
	statePath := ctx.String(pathFlag.Name)
	var res any
	switch kind := ctx.String(kindFlag.Name); kind {
	case "value":
		res, err = db.GetValue(statePath, opts)
	case "rule":
		res, err = db.GetRule(statePath, opts)
	case "owner":
		res, err = db.GetOwner(statePath, opts)
	case "function":
		res, err = db.GetFunction(statePath, opts)
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return err
	}
	return printJson(res)
}

func export(ctx *cli.Context) (err error) {
	path := ctx.String(storeFlag.Name)
	store, err := openStore(ctx.String(storeTypeFlag.Name), path)
	if err != nil {
		return err
	}
	defer closeStore(store, path, &err)

	db, block, err := loadDatabase(ctx, store)
	if err != nil {
		return err
	}
	state := map[string]any{}
	readers := map[string]func(string, database.ReadOptions) (any, error){
		database.ValuesLabel:    db.GetValue,
		database.RulesLabel:     db.GetRule,
		database.OwnersLabel:    db.GetOwner,
		database.FunctionsLabel: db.GetFunction,
	}
	for label, read := range readers {
		subtree, err := read("/", database.ReadOptions{IsFinal: true})
		if err != nil {
			return err
		}
		if subtree != nil {
			state[label] = subtree
		}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	out := ctx.String(outFlag.Name)
	if out == "" {
		fmt.Println(string(data))
		return nil
	}
	log.Printf("Writing state of block %d to %v ...", block, out)
	return os.WriteFile(out, data, 0644)
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import "github.com/ainblockchain/worldstate/database/rules"

//go:generate mockgen -source event_sink.go -destination event_sink_mocks.go -package functions

// RestCall is the notification sent for a triggered REST function.
type RestCall struct {
	Fid          string         `json:"fid"`
	Url          string         `json:"function_url"`
	ValuePath    string         `json:"valuePath"`
	FunctionPath string         `json:"functionPath"`
	Value        any            `json:"value"`
	PrevValue    any            `json:"prevValue"`
	Params       map[string]any `json:"params"`
	Timestamp    int64          `json:"timestamp"`
	TxHash       string         `json:"txHash,omitempty"`
	Auth         rules.Auth     `json:"auth"`
}

// EventSink receives notifications about triggered REST functions. The
// database does not wait for the external service; delivery is the
// responsibility of the sink.
type EventSink interface {
	NotifyRestFunction(call RestCall) error
}

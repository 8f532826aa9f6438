// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package database

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/versions"
)

const (
	testOwner     = "0xowner"
	testTimestamp = int64(1234567890000)
)

func testParams() Params {
	params := DefaultParams()
	params.OwnerAddress = testOwner
	return params
}

func newTestDatabase(t *testing.T) *database {
	t.Helper()
	return newTestDatabaseWithParams(t, testParams())
}

func newTestDatabaseWithParams(t *testing.T, params Params) *database {
	t.Helper()
	db, err := newDatabase(params)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Check(); err != nil {
			t.Errorf("inconsistent database: %v", err)
		}
	})
	return db
}

func authOf(addr string) WriteContext {
	return WriteContext{Auth: rules.Auth{Addr: addr}, Timestamp: testTimestamp, TxHash: "0xhash"}
}

func ownerCtx() WriteContext {
	return authOf(testOwner)
}

func writeRule(rule any) map[string]any {
	return map[string]any{rules.RuleLabel: map[string]any{rules.WriteProperty: rule}}
}

func mustSucceed(t *testing.T, res *Result) {
	t.Helper()
	if res.IsFailure() {
		t.Fatalf("operation failed: %s", toJson(res))
	}
}

func checkFailure(t *testing.T, res *Result, code ResultCode, message string) {
	t.Helper()
	if res.Code != code {
		t.Errorf("unexpected code, wanted %d, got %d (%s)", code, res.Code, res.ErrorMessage)
	}
	if message != "" && res.ErrorMessage != message {
		t.Errorf("unexpected error message\nwanted %s\n   got %s", message, res.ErrorMessage)
	}
}

func getValue(t *testing.T, db *database, path string) any {
	t.Helper()
	res, err := db.GetValue(path, ReadOptions{})
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return res
}

// newOpenDatabase creates a database in which everybody may write values.
func newOpenDatabase(t *testing.T) *database {
	t.Helper()
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/", writeRule(true), ownerCtx()))
	return db
}

func TestDatabase_NewCreatesWritableAndFinalVersion(t *testing.T) {
	db := newTestDatabase(t)
	list := db.GetVersions()
	if len(list) != 2 {
		t.Fatalf("unexpected versions %v", list)
	}
	statuses := map[versions.Status]int{}
	for _, version := range list {
		statuses[version.Status]++
	}
	if statuses[versions.Writable] != 1 || statuses[versions.Finalized] != 1 {
		t.Errorf("unexpected version statuses %v", list)
	}
	owner, err := db.GetOwner("/", ReadOptions{})
	if err != nil {
		t.Fatalf("failed to read owner: %v", err)
	}
	if !rules.HasPermission(owner.(map[string]any)[rules.OwnerLabel], rules.Auth{Addr: testOwner}, rules.WriteRule) {
		t.Errorf("owner lacks permissions at the root: %v", owner)
	}
}

func TestDatabase_NewRejectsInvalidParams(t *testing.T) {
	params := testParams()
	params.MaxTreeHeight = 0
	if _, err := New(params); err == nil {
		t.Errorf("invalid parameters should be rejected")
	}
}

func TestDatabase_ValuesCanNotBeWrittenWithoutRule(t *testing.T) {
	db := newTestDatabase(t)
	res := db.SetValue("/apps/test", 1, authOf("abcd"))
	checkFailure(t, res, EvalRuleFalseWriteRule, "")
	if !strings.HasPrefix(res.ErrorMessage, "Write rule evaluated false: [null] at '/apps/test' for value path '/apps/test'") {
		t.Errorf("unexpected message %s", res.ErrorMessage)
	}
	if got := getValue(t, db, "/apps/test"); got != nil {
		t.Errorf("rejected write is visible: %v", got)
	}
}

func TestDatabase_SetValueAndGetValue(t *testing.T) {
	db := newOpenDatabase(t)
	value := map[string]any{"a": 1.0, "b": map[string]any{"c": "text", "d": true}}
	res := db.SetValue("/apps/test", value, authOf("abcd"))
	mustSucceed(t, res)
	if res.BandwidthGasAmount != 1 {
		t.Errorf("unexpected gas amount %d", res.BandwidthGasAmount)
	}
	if got := getValue(t, db, "/apps/test"); !reflect.DeepEqual(got, value) {
		t.Errorf("unexpected value, wanted %v, got %v", value, got)
	}
	if got := getValue(t, db, "/apps/test/b/c"); got != "text" {
		t.Errorf("unexpected value %v", got)
	}
	if got := getValue(t, db, "/apps/other"); got != nil {
		t.Errorf("unexpected value %v", got)
	}
}

func TestDatabase_InvalidValuePathsAreRejected(t *testing.T) {
	db := newOpenDatabase(t)
	for _, path := range []string{"/apps/test/new/nested/\x7F", "/apps/a.b", "/apps/$", "/apps/*x"} {
		checkFailure(t, db.SetValue(path, 12345, ownerCtx()), InvalidValuePath, "Invalid value path: "+path)
	}
	if _, err := db.GetValue("/apps/a.b", ReadOptions{}); err == nil {
		t.Errorf("reading an invalid path should fail")
	}
}

func TestDatabase_InvalidObjectsAreRejected(t *testing.T) {
	db := newOpenDatabase(t)
	tests := map[string]struct {
		value   any
		message string
	}{
		"array":         {map[string]any{"array": []any{1, 2}}, "Invalid object for states: /array"},
		"invalid label": {map[string]any{"a": map[string]any{"b.c": 1}}, "Invalid object for states: /a/b.c"},
		"dot label":     {map[string]any{".": 1}, "Invalid object for states: /."},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			checkFailure(t, db.SetValue("/apps/test", test.value, ownerCtx()), InvalidObjectForStates, test.message)
		})
	}
}

func TestDatabase_WriteRuleWithPathVariables(t *testing.T) {
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/$var_path", writeRule("auth.addr !== 'abcd'"), ownerCtx()))

	res := db.SetValue("/apps/test/var_path", "value", authOf("abcd"))
	checkFailure(t, res, EvalRuleFalseWriteRule,
		`Write rule evaluated false: [auth.addr !== 'abcd'] at '/apps/test/$var_path' for value path '/apps/test/var_path' `+
			`with path vars '{"$var_path":"var_path"}', data 'null', newData '"value"', auth '{"addr":"abcd"}', timestamp '1234567890000'`)

	mustSucceed(t, db.SetValue("/apps/test/var_path", "value", authOf("other")))
	mustSucceed(t, db.SetValue("/apps/test/var_path/subpath", "value", authOf("other")))
}

func TestDatabase_WriteRulesSeeDataAndState(t *testing.T) {
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/counter", writeRule("(data === null && newData === 0) || newData === data + 1"), ownerCtx()))
	mustSucceed(t, db.SetRule("/apps/test/copy", writeRule("newData == getValue('/apps/test/counter')"), ownerCtx()))

	checkFailure(t, db.SetValue("/apps/test/counter", 1, ownerCtx()), EvalRuleFalseWriteRule, "")
	mustSucceed(t, db.SetValue("/apps/test/counter", 0, ownerCtx()))
	mustSucceed(t, db.SetValue("/apps/test/counter", 1, ownerCtx()))
	checkFailure(t, db.SetValue("/apps/test/counter", 3, ownerCtx()), EvalRuleFalseWriteRule, "")

	checkFailure(t, db.SetValue("/apps/test/copy", 2, ownerCtx()), EvalRuleFalseWriteRule, "")
	mustSucceed(t, db.SetValue("/apps/test/copy", 1, ownerCtx()))
}

func TestDatabase_SubtreeRulesBlockValueWrites(t *testing.T) {
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/upper/path", writeRule(true), ownerCtx()))
	mustSucceed(t, db.SetRule("/apps/test/upper/path/deeper/path", writeRule(true), ownerCtx()))

	checkFailure(t, db.SetValue("/apps/test/upper/path", "some value", ownerCtx()), EvalRuleNonEmptySubtreeRules,
		`Non-empty (1) subtree rules for value path '/apps/test/upper/path': ["/deeper/path"]`)
	mustSucceed(t, db.SetValue("/apps/test/upper/path/deeper/path", "some value", ownerCtx()))
}

func TestDatabase_ShardConfigsMakePathsNonWritable(t *testing.T) {
	db := newOpenDatabase(t)
	mustSucceed(t, db.SetValue("/apps/test/shards", map[string]any{
		"enabled_shard":  map[string]any{rules.ShardLabel: map[string]any{rules.ShardingEnabledProperty: true}},
		"disabled_shard": map[string]any{rules.ShardLabel: map[string]any{rules.ShardingEnabledProperty: false}},
	}, ownerCtx()))

	message := "Non-writable path with shard config: /values/apps/test/shards/enabled_shard"
	checkFailure(t, db.SetValue("/apps/test/shards/enabled_shard", 20, ownerCtx()), NonWritablePathWithShardConfig, message)
	checkFailure(t, db.SetValue("/apps/test/shards/enabled_shard/path", 20, ownerCtx()), NonWritablePathWithShardConfig, message)
	checkFailure(t, db.IncValue("/apps/test/shards/enabled_shard/path", 5, ownerCtx()), NonWritablePathWithShardConfig, message)
	checkFailure(t, db.SetRule("/apps/test/shards/enabled_shard/path", writeRule(true), ownerCtx()), SetRuleNonWritablePath, message)

	mustSucceed(t, db.SetValue("/apps/test/shards/disabled_shard/path", 20, ownerCtx()))
	if got := getValue(t, db, "/apps/test/shards/disabled_shard/path"); got != 20.0 {
		t.Errorf("unexpected value %v", got)
	}
}

func TestDatabase_IncAndDecValue(t *testing.T) {
	db := newOpenDatabase(t)
	mustSucceed(t, db.SetValue("/apps/test", map[string]any{"value": 20, "text": "bar"}, ownerCtx()))

	mustSucceed(t, db.IncValue("/apps/test/value", 10, ownerCtx()))
	if got := getValue(t, db, "/apps/test/value"); got != 30.0 {
		t.Errorf("unexpected value after increment %v", got)
	}
	mustSucceed(t, db.DecValue("/apps/test/value", 5, ownerCtx()))
	if got := getValue(t, db, "/apps/test/value"); got != 25.0 {
		t.Errorf("unexpected value after decrement %v", got)
	}
	mustSucceed(t, db.IncValue("/apps/test/new/path", 100, ownerCtx()))
	if got := getValue(t, db, "/apps/test/new/path"); got != 100.0 {
		t.Errorf("missing values should be incremented from 0, got %v", got)
	}
	mustSucceed(t, db.DecValue("/apps/test/other/path", 7, ownerCtx()))
	if got := getValue(t, db, "/apps/test/other/path"); got != -7.0 {
		t.Errorf("missing values should be decremented from 0, got %v", got)
	}

	checkFailure(t, db.IncValue("/apps/test/value", "10", ownerCtx()), IncValueNotANumber, "Not a number type: 25 or 10")
	checkFailure(t, db.IncValue("/apps/test/text", 10, ownerCtx()), IncValueNotANumber, "Not a number type: bar or 10")
	checkFailure(t, db.DecValue("/apps/test/text", 10, ownerCtx()), DecValueNotANumber, "Not a number type: bar or 10")
	if got := getValue(t, db, "/apps/test/value"); got != 25.0 {
		t.Errorf("failed operations modified the value: %v", got)
	}
}

func TestDatabase_DeletingValuesPrunesEmptyNodes(t *testing.T) {
	db := newOpenDatabase(t)
	mustSucceed(t, db.SetValue("/a", map[string]any{"b": 1, "c": 2}, ownerCtx()))

	mustSucceed(t, db.SetValue("/a/b", nil, ownerCtx()))
	if got, want := getValue(t, db, "/"), map[string]any{"a": map[string]any{"c": 2.0}}; !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected state, wanted %v, got %v", want, got)
	}
	mustSucceed(t, db.SetValue("/a/c", nil, ownerCtx()))
	if got := getValue(t, db, "/"); got != nil {
		t.Errorf("empty nodes should be pruned, got %v", got)
	}
	info, err := db.GetStateInfo("/")
	if err != nil {
		t.Fatalf("failed to get state info: %v", err)
	}
	if info.NumChildren != 2 {
		t.Errorf("only the rules and owners subtrees should remain, got %d children", info.NumChildren)
	}
}

func TestDatabase_MaxChildrenStateRule(t *testing.T) {
	db := newOpenDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/max", map[string]any{
		rules.RuleLabel: map[string]any{rules.StateProperty: map[string]any{rules.MaxChildrenProperty: 1}},
	}, ownerCtx()))

	checkFailure(t, db.SetValue("/apps/test/max", map[string]any{"child1": 1, "child2": 2}, ownerCtx()), EvalRuleFalseStateRule,
		`State rule evaluated false: [{"max_children":1}] at '/apps/test/max' for value path '/apps/test/max' with newValue '{"child1":1,"child2":2}'`)

	mustSucceed(t, db.SetValue("/apps/test/max/child1", 1, ownerCtx()))
	mustSucceed(t, db.SetValue("/apps/test/max/child1", 2, ownerCtx()))
	checkFailure(t, db.SetValue("/apps/test/max/child2", 2, ownerCtx()), EvalRuleFalseStateRule,
		`State rule evaluated false: [{"max_children":1}] at '/apps/test/max' for value path '/apps/test/max/child2' with newValue '2'`)
}

func TestDatabase_GcMaxSiblingsEvictsOldestSiblings(t *testing.T) {
	db := newOpenDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/max/$sibling", map[string]any{
		rules.RuleLabel: map[string]any{rules.StateProperty: map[string]any{rules.GcMaxSiblingsProperty: 2}},
	}, ownerCtx()))

	for _, child := range []string{"child1", "child2", "child3", "child4"} {
		mustSucceed(t, db.SetValue("/apps/test/max/"+child, child, ownerCtx()))
	}
	want := map[string]any{"child3": "child3", "child4": "child4"}
	if got := getValue(t, db, "/apps/test/max"); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected siblings, wanted %v, got %v", want, got)
	}

	// overwriting an existing sibling does not evict others
	mustSucceed(t, db.SetValue("/apps/test/max/child3", "updated", ownerCtx()))
	if got := getValue(t, db, "/apps/test/max/child4"); got != "child4" {
		t.Errorf("unexpected eviction, got %v", got)
	}
}

func TestDatabase_TreeHeightLimit(t *testing.T) {
	params := testParams()
	params.MaxTreeHeight = 5
	db := newTestDatabaseWithParams(t, params)
	mustSucceed(t, db.SetRule("/", writeRule(true), ownerCtx()))

	mustSucceed(t, db.SetValue("/a/b/c/d", 1, ownerCtx()))
	checkFailure(t, db.SetValue("/a/b/c/d/e", 1, ownerCtx()), OutOfTreeHeightLimit, "Out of tree height limit (6 > 5)")
	if got := getValue(t, db, "/a/b/c/d"); got != 1.0 {
		t.Errorf("failed write modified the state: %v", got)
	}
}

func TestDatabase_ChildrenLimit(t *testing.T) {
	params := testParams()
	params.MaxChildren = 4
	db := newTestDatabaseWithParams(t, params)
	mustSucceed(t, db.SetRule("/", writeRule(true), ownerCtx()))

	mustSucceed(t, db.SetValue("/a", map[string]any{"w": 0, "x": 1, "y": 2, "z": 3}, ownerCtx()))
	checkFailure(t, db.SetValue("/a/v", 4, ownerCtx()), OutOfChildrenLimit, "Out of tree children limit (5 > 4)")
}

func TestDatabase_SetOperationIsAtomic(t *testing.T) {
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test/open", writeRule(true), ownerCtx()))

	res := db.Execute(Operation{Type: Set, OpList: []Operation{
		{Type: SetValue, Ref: "/apps/test/open/first", Value: 1},
		{Type: SetValue, Ref: "/apps/test/closed", Value: 2},
		{Type: SetValue, Ref: "/apps/test/open/third", Value: 3},
	}}, authOf("abcd"))

	if !res.IsFailure() {
		t.Fatalf("batch should fail")
	}
	if len(res.ResultList) != 2 {
		t.Fatalf("results should end at the failing operation, got %s", toJson(res))
	}
	if res.ResultList[0].Code != Success || res.ResultList[1].Code != EvalRuleFalseWriteRule {
		t.Errorf("unexpected results %s", toJson(res))
	}
	if got := getValue(t, db, "/apps/test/open"); got != nil {
		t.Errorf("effects of failed batch are visible: %v", got)
	}

	res = db.Execute(Operation{Type: Set, OpList: []Operation{
		{Ref: "/apps/test/open/first", Value: 1},
		{Type: IncValue, Ref: "/apps/test/open/first", Value: 2},
	}}, authOf("abcd"))
	mustSucceed(t, res)
	if got := res.GasAmount(); got != 2 {
		t.Errorf("unexpected gas amount %d", got)
	}
	if got := getValue(t, db, "/apps/test/open/first"); got != 3.0 {
		t.Errorf("unexpected value %v", got)
	}
}

func TestDatabase_InvalidOperationTypes(t *testing.T) {
	db := newOpenDatabase(t)
	checkFailure(t, db.Execute(Operation{Type: "FOO", Ref: "/a", Value: 1}, ownerCtx()), InvalidOperationType, "Invalid operation type: FOO")

	res := db.Execute(Operation{Type: Set, OpList: []Operation{
		{Type: Set, OpList: []Operation{{Ref: "/a", Value: 1}}},
	}}, ownerCtx())
	if !res.IsFailure() || res.ResultList[0].Code != InvalidOperationType {
		t.Errorf("nested SET operations should be rejected, got %s", toJson(res))
	}
}

func TestDatabase_ExecuteTransactionUsesSenderAsAuthor(t *testing.T) {
	db := newTestDatabase(t)
	mustSucceed(t, db.SetRule("/apps/test", writeRule("auth.addr == 'abcd' && currentTime == 1000"), ownerCtx()))

	tx := Transaction{
		Hash:      "0x1234",
		Timestamp: 1000,
		Address:   "abcd",
		Operation: Operation{Type: SetValue, Ref: "/apps/test/value", Value: "hello"},
	}
	mustSucceed(t, db.ExecuteTransaction(tx))
	tx.Address = "other"
	checkFailure(t, db.ExecuteTransaction(tx), EvalRuleFalseWriteRule, "")
}

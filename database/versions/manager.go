// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package versions

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/statetree"
	"golang.org/x/exp/maps"
)

// Status describes the role a version plays in its manager.
type Status uint8

const (
	// Transient versions are clones without a designated role, like the
	// targets of speculative executions.
	Transient Status = iota
	// Writable is the status of the single version accepting mutations.
	Writable
	// Finalized is the status of the version serving final reads.
	Finalized
	// Backup is the status of the version kept as a rollback point.
	Backup
	// Deleted is reported for versions that no longer exist.
	Deleted
)

func (s Status) String() string {
	switch s {
	case Transient:
		return "transient"
	case Writable:
		return "writable"
	case Finalized:
		return "finalized"
	case Backup:
		return "backup"
	case Deleted:
		return "deleted"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

const (
	NoBackup       = common.ConstError("no backup version available")
	NotFinalizable = common.ConstError("the writable version cannot be finalized")
)

// Version is a named snapshot of the state tree.
type Version struct {
	Id     string
	Root   statetree.NodeId
	Status Status
}

// Manager owns the named roots of a forest. Every version holds a reference
// on its root node, keeping all nodes reachable from it alive. Cloning a
// version is O(1); all nodes are shared until they are written.
type Manager struct {
	forest   *statetree.Forest
	roots    map[string]*statetree.NodeId
	writable string
	final    string
	backup   string
	logger   *slog.Logger
}

// NewManager creates a manager for versions of the given forest.
func NewManager(forest *statetree.Forest, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		forest: forest,
		roots:  map[string]*statetree.NodeId{},
		logger: logger,
	}
}

func (m *Manager) Forest() *statetree.Forest {
	return m.forest
}

func (m *Manager) add(id string, root statetree.NodeId) error {
	if _, found := m.roots[id]; found {
		return fmt.Errorf("%w: %s", common.VersionExists, id)
	}
	m.forest.Retain(root)
	m.roots[id] = &root
	return nil
}

// CreateVersion registers a new version with the given tree as its content.
func (m *Manager) CreateVersion(id string, obj any) error {
	if _, found := m.roots[id]; found {
		return fmt.Errorf("%w: %s", common.VersionExists, id)
	}
	var root statetree.NodeId
	if dict, isDict := obj.(map[string]any); obj == nil || (isDict && len(dict) == 0) {
		root = m.forest.NewInternal(id)
	} else {
		var err error
		if root, err = m.forest.BuildTree(obj, id); err != nil {
			return err
		}
	}
	m.logger.Debug("created version", "version", id)
	return m.add(id, root)
}

// CloneVersion creates a new version sharing all nodes with the source.
func (m *Manager) CloneVersion(sourceId, newId string) error {
	source, found := m.roots[sourceId]
	if !found {
		return fmt.Errorf("%w: %s", common.UnknownVersion, sourceId)
	}
	if _, found := m.roots[newId]; found {
		return fmt.Errorf("%w: %s", common.VersionExists, newId)
	}
	m.logger.Debug("cloned version", "source", sourceId, "version", newId)
	return m.add(newId, m.forest.Clone(*source, newId))
}

// GetRoot returns the root node of a version.
func (m *Manager) GetRoot(id string) (statetree.NodeId, error) {
	root, found := m.roots[id]
	if !found {
		return statetree.NoNode, fmt.Errorf("%w: %s", common.UnknownVersion, id)
	}
	return *root, nil
}

// GetRootRef returns a reference to the root of a version that is updated by
// copy-on-write operations of the forest.
func (m *Manager) GetRootRef(id string) (*statetree.NodeId, error) {
	root, found := m.roots[id]
	if !found {
		return nil, fmt.Errorf("%w: %s", common.UnknownVersion, id)
	}
	return root, nil
}

func (m *Manager) Has(id string) bool {
	_, found := m.roots[id]
	return found
}

func (m *Manager) GetStatus(id string) Status {
	switch {
	case !m.Has(id):
		return Deleted
	case id == m.writable:
		return Writable
	case id == m.final:
		return Finalized
	case id == m.backup:
		return Backup
	}
	return Transient
}

// WritableVersion is the id of the writable version, or "" if none is set.
func (m *Manager) WritableVersion() string {
	return m.writable
}

// FinalVersion is the id of the finalized version, or "" if none is set.
func (m *Manager) FinalVersion() string {
	return m.final
}

// BackupVersion is the id of the backup version, or "" if none is set.
func (m *Manager) BackupVersion() string {
	return m.backup
}

// SetWritable designates the given version as the writable one. The
// previously writable version is deleted unless it has another role.
func (m *Manager) SetWritable(id string) error {
	if !m.Has(id) {
		return fmt.Errorf("%w: %s", common.UnknownVersion, id)
	}
	if id == m.final {
		return fmt.Errorf("%w: %s is finalized", common.VersionInUse, id)
	}
	if id == m.backup {
		m.backup = ""
	}
	previous := m.writable
	m.writable = id
	m.logger.Debug("set writable version", "version", id, "previous", previous)
	if previous != "" && previous != id {
		return m.DeleteVersion(previous)
	}
	return nil
}

// FinalizeVersion marks the given version as finalized. The previously
// finalized version is superseded and deleted unless it has another role.
// The writable version may not be finalized; a clone of it has to be
// finalized instead.
func (m *Manager) FinalizeVersion(id string) error {
	if !m.Has(id) {
		return fmt.Errorf("%w: %s", common.UnknownVersion, id)
	}
	if id == m.writable {
		return fmt.Errorf("%w: %s", NotFinalizable, id)
	}
	if id == m.backup {
		m.backup = ""
	}
	previous := m.final
	m.final = id
	m.logger.Debug("finalized version", "version", id, "previous", previous)
	if previous != "" && previous != id {
		return m.DeleteVersion(previous)
	}
	return nil
}

// Backup saves a copy of the writable version as rollback point, replacing
// a previous backup.
func (m *Manager) Backup(id string) error {
	if m.writable == "" {
		return fmt.Errorf("%w: no writable version", common.UnknownVersion)
	}
	if err := m.CloneVersion(m.writable, id); err != nil {
		return err
	}
	previous := m.backup
	m.backup = id
	if previous != "" {
		return m.DeleteVersion(previous)
	}
	return nil
}

// Restore makes the backup version the writable version, discarding the
// current writable version. The backup is consumed.
func (m *Manager) Restore() error {
	if m.backup == "" {
		return NoBackup
	}
	m.logger.Debug("restoring backup", "version", m.backup)
	return m.SetWritable(m.backup)
}

// DeleteVersion removes a version, releasing all nodes no longer reachable
// from any other version. The writable and the finalized version can not be
// deleted.
func (m *Manager) DeleteVersion(id string) error {
	root, found := m.roots[id]
	if !found {
		return fmt.Errorf("%w: %s", common.UnknownVersion, id)
	}
	if id == m.writable || id == m.final {
		return fmt.Errorf("%w: %s", common.VersionInUse, id)
	}
	if id == m.backup {
		m.backup = ""
	}
	delete(m.roots, id)
	m.forest.Release(*root)
	m.logger.Debug("deleted version", "version", id)
	return nil
}

// Versions lists all versions ordered by id.
func (m *Manager) Versions() []Version {
	ids := maps.Keys(m.roots)
	slices.Sort(ids)
	res := make([]Version, 0, len(ids))
	for _, id := range ids {
		res = append(res, Version{Id: id, Root: *m.roots[id], Status: m.GetStatus(id)})
	}
	return res
}

// NumVersions is the number of live versions.
func (m *Manager) NumVersions() int {
	return len(m.roots)
}

// Roots lists the root nodes of all versions.
func (m *Manager) Roots() []statetree.NodeId {
	res := make([]statetree.NodeId, 0, len(m.roots))
	for _, root := range m.roots {
		res = append(res, *root)
	}
	return res
}

// Check verifies the consistency of the forest shared by all versions.
func (m *Manager) Check() error {
	return m.forest.Check(m.Roots())
}

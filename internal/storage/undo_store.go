package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// UndoNode represents a single undo history entry for a scene.
type UndoNode struct {
	ID           string    `json:"id"`
	SceneID      string    `json:"sceneId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoTree is the full history tree returned to the frontend.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// UndoStore manages per-scene undo history in SQLite.
type UndoStore struct {
	db *DB
}

func NewUndoStore(db *DB) *UndoStore {
	return &UndoStore{db: db}
}

// maxUndoNodes bounds history growth per scene; oldest nodes are
// relinked to their grandparent and removed.
const maxUndoNodes = 40

// LoadTree returns the full undo tree for a scene, or nil when no
// history exists yet.
func (s *UndoStore) LoadTree(sceneID string) (*UndoTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, scene_id, parent_id, label, snapshot_json, created_at
		 FROM undo_nodes WHERE scene_id = ? ORDER BY created_at ASC`, sceneID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		if err := rows.Scan(&n.ID, &n.SceneID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID := rootID
	s.db.Conn().QueryRow(
		`SELECT current_node_id FROM undo_state WHERE scene_id = ?`, sceneID,
	).Scan(&currentID)

	return &UndoTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

// PushNode creates a new undo node under the given parent and moves
// the current pointer onto it. IDs come from the frontend so both
// sides stay in sync.
func (s *UndoStore) PushNode(sceneID, nodeID, parentID, label, snapshotJSON string) (*UndoNode, error) {
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_nodes (id, scene_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nodeID, sceneID, pID, label, snapshotJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}
	if err := s.setCurrent(sceneID, nodeID); err != nil {
		return nil, err
	}

	s.prune(sceneID)

	return &UndoNode{
		ID:           nodeID,
		SceneID:      sceneID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    now,
	}, nil
}

// GoTo moves the current position pointer.
func (s *UndoStore) GoTo(sceneID, nodeID string) error {
	return s.setCurrent(sceneID, nodeID)
}

func (s *UndoStore) setCurrent(sceneID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_state (scene_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(scene_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		sceneID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("update undo state: %w", err)
	}
	return nil
}

// ClearScene removes all undo data for a scene.
func (s *UndoStore) ClearScene(sceneID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM undo_state WHERE scene_id = ?`, sceneID)
	_, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE scene_id = ?`, sceneID)
	return err
}

// prune removes the oldest nodes once the per-scene limit is exceeded,
// reparenting their children so the tree stays connected. The current
// node is never pruned.
func (s *UndoStore) prune(sceneID string) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM undo_nodes WHERE scene_id = ?`, sceneID).Scan(&count)
	if count <= maxUndoNodes {
		return
	}

	var currentID string
	s.db.Conn().QueryRow(`SELECT current_node_id FROM undo_state WHERE scene_id = ?`, sceneID).Scan(&currentID)

	// Collect victims first: the rows cursor must be closed before any
	// write on the single-connection pool.
	rows, err := s.db.Conn().Query(
		`SELECT id FROM undo_nodes WHERE scene_id = ?
		 ORDER BY created_at ASC LIMIT ?`, sceneID, count-maxUndoNodes,
	)
	if err != nil {
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil && id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM undo_nodes WHERE id = ?`, id).Scan(&parentID)
		if parentID.Valid {
			s.db.Conn().Exec(`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`, parentID.String, id)
		} else {
			s.db.Conn().Exec(`UPDATE undo_nodes SET parent_id = NULL WHERE parent_id = ?`, id)
		}
		s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE id = ?`, id)
	}
}

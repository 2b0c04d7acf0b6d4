//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// Ensure parent directory exists (KuzuDB creates the leaf directory).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database %s: %w", path, err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Tip(
		name STRING,
		subject STRING,
		collected STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(
		name STRING,
		mean_distance DOUBLE,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS LINKED(FROM Tip TO Tip, distance DOUBLE)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM Tip TO Cluster)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Clear deletes every node together with its relationships.
func (s *KuzuStore) Clear(_ context.Context) error {
	for _, table := range []string{"Cluster", "Tip"} {
		// Table name is a fixed internal constant, not user input.
		if err := s.exec(fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", table), nil); err != nil {
			return err
		}
	}
	return nil
}

// ---------- Write operations ----------

// AddTip upserts a Tip node.
func (s *KuzuStore) AddTip(_ context.Context, node TipNode) error {
	return s.exec(
		`MERGE (t:Tip {name: $name})
		 SET t.subject = $subject, t.collected = $collected`,
		map[string]any{
			"name":      node.Name,
			"subject":   node.Subject,
			"collected": formatDate(node.Collected),
		},
	)
}

// AddCluster inserts a Cluster node. Membership is recorded separately with
// BELONGS edges.
func (s *KuzuStore) AddCluster(_ context.Context, node ClusterNode) error {
	return s.exec(
		"CREATE (c:Cluster {name: $name, mean_distance: $dist})",
		map[string]any{
			"name": node.Name,
			"dist": node.MeanDistance,
		},
	)
}

// AddEdge inserts a relationship edge between two existing nodes.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	switch edge.Kind {
	case EdgeKindLinked:
		return s.exec(
			`MATCH (a:Tip {name: $src}), (b:Tip {name: $dst})
			 CREATE (a)-[:LINKED {distance: $dist}]->(b)`,
			map[string]any{
				"src":  edge.SourceID,
				"dst":  edge.TargetID,
				"dist": edge.Distance,
			},
		)
	case EdgeKindBelongs:
		return s.exec(
			`MATCH (a:Tip {name: $src}), (b:Cluster {name: $dst})
			 CREATE (a)-[:BELONGS_TO]->(b)`,
			map[string]any{
				"src": edge.SourceID,
				"dst": edge.TargetID,
			},
		)
	default:
		return fmt.Errorf("kuzu: unsupported edge kind: %s", edge.Kind)
	}
}

// ---------- Read operations ----------

// GetTip retrieves a single Tip node by name, or returns nil if not found.
func (s *KuzuStore) GetTip(_ context.Context, name string) (*TipNode, error) {
	rows, err := s.query(
		"MATCH (t:Tip {name: $name}) RETURN t.name, t.subject, t.collected",
		map[string]any{"name": name},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	tip := rowToTip(rows[0])
	return &tip, nil
}

// GetTips returns all tips ordered by name.
func (s *KuzuStore) GetTips(_ context.Context) ([]TipNode, error) {
	rows, err := s.query(
		"MATCH (t:Tip) RETURN t.name, t.subject, t.collected ORDER BY t.name",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]TipNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToTip(r))
	}
	return out, nil
}

// GetNeighbors follows LINKED edges in either direction.
func (s *KuzuStore) GetNeighbors(_ context.Context, name string) ([]Edge, error) {
	rows, err := s.query(
		`MATCH (a:Tip {name: $name})-[r:LINKED]-(b:Tip)
		 RETURN b.name, r.distance`,
		map[string]any{"name": name},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, Edge{
			SourceID: name,
			TargetID: toString(r[0]),
			Kind:     EdgeKindLinked,
			Distance: toFloat64(r[1]),
		})
	}
	sortNeighbors(out)
	return out, nil
}

// GetClusters returns all Cluster nodes ordered by name.
func (s *KuzuStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	rows, err := s.query(
		"MATCH (c:Cluster) RETURN c.name, c.mean_distance ORDER BY c.name",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ClusterNode, 0, len(rows))
	for _, r := range rows {
		name := toString(r[0])

		// Fetch cluster members via BELONGS_TO edges.
		memberRows, err := s.query(
			"MATCH (t:Tip)-[:BELONGS_TO]->(c:Cluster {name: $name}) RETURN t.name ORDER BY t.name",
			map[string]any{"name": name},
		)
		if err != nil {
			return nil, err
		}
		members := make([]string, 0, len(memberRows))
		for _, mr := range memberRows {
			members = append(members, toString(mr[0]))
		}

		out = append(out, ClusterNode{
			Name:         name,
			MeanDistance: toFloat64(r[1]),
			Members:      members,
		})
	}
	return out, nil
}

// ---------- Edge enumeration ----------

// GetAllEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	rows, err := s.query(
		"MATCH (a:Tip)-[r:LINKED]->(b:Tip) RETURN a.name, b.name, r.distance",
		nil,
	)
	if err != nil {
		return nil, err
	}
	edges := make([]Edge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, Edge{
			SourceID: toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     EdgeKindLinked,
			Distance: toFloat64(r[2]),
		})
	}

	rows, err = s.query("MATCH (a:Tip)-[:BELONGS_TO]->(c:Cluster) RETURN a.name, c.name", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		edges = append(edges, Edge{
			SourceID: toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     EdgeKindBelongs,
		})
	}
	return edges, nil
}

// ---------- Stats ----------

// Stats returns counts of all node and edge tables.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	tips, err := s.count("MATCH (n:Tip) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	clusters, err := s.count("MATCH (n:Cluster) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	linked, err := s.count("MATCH ()-[r:LINKED]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	belongs, err := s.count("MATCH ()-[r:BELONGS_TO]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		TipCount:     tips,
		ClusterCount: clusters,
		EdgeCount:    linked + belongs,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: execute: %w", err)
		}
		res.Close()
		return nil
	}

	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToTip converts a name, subject, collected row into a TipNode.
func rowToTip(r []any) TipNode {
	tip := TipNode{
		Name:    toString(r[0]),
		Subject: toString(r[1]),
	}
	if d := toString(r[2]); d != "" {
		// Written by formatDate, so a parse failure means a hand-edited row.
		tip.Collected, _ = time.Parse(time.DateOnly, d)
	}
	return tip
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

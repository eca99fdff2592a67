package tagteam

import (
	"context"
	"database/sql"
	_ "embed"
	"sync"
	"time"

	"github.com/tailscale/squibble"
	_ "modernc.org/sqlite"
)

//go:embed db/latest_schema.sql
var dbSchema string

var schema = &squibble.Schema{
	Current: dbSchema,
}

type DB struct {
	mu sync.Mutex
	db *sql.DB

	filepath string
}

// AnalysisRecord is one row of the analysis log: a completed pipeline run
// together with the models that produced it.
type AnalysisRecord struct {
	Id           int       `json:"id"`
	VisionModel  string    `json:"vision_model"`
	LogicModel   string    `json:"logic_model"`
	VisionOutput string    `json:"vision_output"`
	FinalAnswer  string    `json:"final_answer"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewDB(ctx context.Context, fname string) (*DB, error) {
	// Open the DB but flip on the cleaner timestamps from Go
	sqldb, err := sql.Open("sqlite", fname+"?_time_format=sqlite")
	if err != nil {
		return nil, err
	}
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, err
	}
	if err := schema.Apply(ctx, sqldb); err != nil {
		return nil, err
	}

	return &DB{db: sqldb, filepath: fname}, nil
}

func (db *DB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.db.Close()
}

// InsertAnalysis appends a completed analysis to the log and returns the id
// of the new row.
func (db *DB) InsertAnalysis(ctx context.Context, a *Analysis, at time.Time) (int, error) {
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO analyses
		(vision_model, logic_model, vision_output, final_answer, created_at)
		VALUES (?,?,?,?,?)
		`,
		VisionModelID, LogicModelID, a.VisionOutput, a.FinalAnswer, at,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

// RecentAnalyses returns up to limit rows of the analysis log, newest first.
func (db *DB) RecentAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, vision_model, logic_model, vision_output, final_answer, created_at
		FROM analyses
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*AnalysisRecord
	for rows.Next() {
		rec := &AnalysisRecord{}
		err := rows.Scan(
			&rec.Id,
			&rec.VisionModel,
			&rec.LogicModel,
			&rec.VisionOutput,
			&rec.FinalAnswer,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

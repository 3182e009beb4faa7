package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/mob/domain"
)

const runColumns = `id, guid, project, scenario, state, messages, warnings, error, started_at, finished_at`

// runRepository implements domain.RunRepository using SQLite.
type runRepository struct {
	db *sql.DB
}

func newRunRepository(db *sql.DB) *runRepository {
	return &runRepository{db: db}
}

var _ domain.RunRepository = (*runRepository)(nil)

// Save inserts a finished run. Runs are immutable once stored; saving the
// same GUID twice is an error.
func (r *runRepository) Save(result *domain.Result) error {
	model, err := toRunModel(result)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO runs (guid, project, scenario, state, messages, warnings, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.GUID, model.Project, model.Scenario, model.State, model.Messages, model.Warnings,
		model.Error, model.StartedAt, model.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	log.Debug(log.CatDB, "run saved", "guid", model.GUID, "state", model.State)
	return nil
}

// FindByGUID returns RunNotFoundError if no run has guid.
func (r *runRepository) FindByGUID(guid string) (*domain.Result, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE guid = ?`, guid)
	model, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.RunNotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find run by guid: %w", err)
	}
	return model.toDomain()
}

// ListRecent returns up to limit runs, newest first. An empty project
// lists runs of every project; limit <= 0 means no limit.
func (r *runRepository) ListRecent(project string, limit int) ([]*domain.Result, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []*RunModel
	for rows.Next() {
		model, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	results := make([]*domain.Result, 0, len(models))
	for _, m := range models {
		res, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunModel, error) {
	var m RunModel
	err := s.Scan(&m.ID, &m.GUID, &m.Project, &m.Scenario, &m.State, &m.Messages, &m.Warnings,
		&m.Error, &m.StartedAt, &m.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

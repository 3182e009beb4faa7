package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/mob/internal/mob/domain"
)

// RunModel represents the database row for the runs table.
// Times are Unix milliseconds; messages and warnings are JSON arrays.
type RunModel struct {
	ID         int64
	GUID       string
	Project    string
	Scenario   string
	State      string
	Messages   string
	Warnings   string
	Error      *string // nullable
	StartedAt  int64
	FinishedAt int64
}

type warningRow struct {
	Service string `json:"service"`
	Reason  string `json:"reason"`
}

// toRunModel converts a finished run to its row.
func toRunModel(r *domain.Result) (*RunModel, error) {
	if !r.State.IsTerminal() {
		return nil, fmt.Errorf("run %s is not finished (state %s)", r.GUID, r.State)
	}
	messages := r.Messages
	if messages == nil {
		messages = []string{}
	}
	msgJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encoding messages: %w", err)
	}
	warnings := make([]warningRow, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, warningRow{Service: w.Service, Reason: w.Reason})
	}
	warnJSON, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("encoding warnings: %w", err)
	}

	m := &RunModel{
		GUID:       r.GUID,
		Project:    r.Project,
		Scenario:   r.Scenario.String(),
		State:      string(r.State),
		Messages:   string(msgJSON),
		Warnings:   string(warnJSON),
		StartedAt:  r.StartedAt.UnixMilli(),
		FinishedAt: r.FinishedAt.UnixMilli(),
	}
	if r.Err != nil {
		text := r.Err.Error()
		m.Error = &text
	}
	return m, nil
}

// toDomain converts a row back to a run. The error keeps only its text.
func (m *RunModel) toDomain() (*domain.Result, error) {
	var messages []string
	if err := json.Unmarshal([]byte(m.Messages), &messages); err != nil {
		return nil, fmt.Errorf("decoding messages of run %s: %w", m.GUID, err)
	}
	var warnings []warningRow
	if err := json.Unmarshal([]byte(m.Warnings), &warnings); err != nil {
		return nil, fmt.Errorf("decoding warnings of run %s: %w", m.GUID, err)
	}

	r := &domain.Result{
		GUID:       m.GUID,
		Project:    m.Project,
		Scenario:   domain.ParseScenario(m.Scenario),
		State:      domain.State(m.State),
		Messages:   messages,
		StartedAt:  time.UnixMilli(m.StartedAt),
		FinishedAt: time.UnixMilli(m.FinishedAt),
	}
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, &domain.NonFatalServiceWarning{Service: w.Service, Reason: w.Reason})
	}
	if m.Error != nil {
		r.Err = errors.New(*m.Error)
	}
	return r, nil
}

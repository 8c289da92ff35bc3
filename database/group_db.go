package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Querier abstracts *sql.DB / *sql.Tx for the aggregate queries below
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// GroupSummary describes one face group as produced by the latest clustering
// pass: its opaque label, how many faces carry it and a cover photo to show.
type GroupSummary struct {
	GroupID      string `json:"group_id"`
	FaceCount    int    `json:"count"`
	CoverPhotoID string `json:"cover_photo_id"`
}

// ListGroupSummaries returns all face groups ordered by descending size.
// Unlabeled faces (mid-pass or never clustered) are excluded.
func ListGroupSummaries(db Querier) ([]GroupSummary, error) {
	queryBuilder := psql.Select("group_id", "COUNT(*)", "MIN(photo_id)").
		From("faces").
		Where(sq.NotEq{"group_id": nil}).
		GroupBy("group_id").
		OrderBy("COUNT(*) DESC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListGroupSummaries: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListGroupSummaries query: %w", err)
	}
	defer rows.Close()

	var summaries []GroupSummary
	for rows.Next() {
		var s GroupSummary
		if err := rows.Scan(&s.GroupID, &s.FaceCount, &s.CoverPhotoID); err != nil {
			return nil, fmt.Errorf("failed to scan group summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group summary rows: %w", err)
	}
	return summaries, nil
}

// ListGroupPhotoIDs returns the distinct photos containing at least one face
// with the given group label.
func ListGroupPhotoIDs(db Querier, groupID string) ([]string, error) {
	queryBuilder := psql.Select("DISTINCT photo_id").
		From("faces").
		Where(sq.Eq{"group_id": groupID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListGroupPhotoIDs: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListGroupPhotoIDs query: %w", err)
	}
	defer rows.Close()

	var photoIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group photo row: %w", err)
		}
		photoIDs = append(photoIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group photo rows: %w", err)
	}
	return photoIDs, nil
}

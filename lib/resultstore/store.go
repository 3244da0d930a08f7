// Package resultstore keeps the documents of finished crawl and scrape jobs
// in a sqlite database.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"scrapeless-go/lib/crawl"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// OpenDB opens (or creates) the database at `path` and applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	if path != ":memory:" {
		_, statErr := os.Stat(path)
		if os.IsNotExist(statErr) {
			slog.Debug("creating result database", "path", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type Job struct {
	Id         string
	Kind       string
	Url        string
	Status     string
	Total      int
	Completed  int
	FinishedAt time.Time
}

type PushRequest struct {
	Job       Job
	Documents []crawl.Document
}

// Push saves a job with its documents, the documents of an earlier push of
// the same job are replaced.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	job := req.Job
	_, err = tx.ExecContext(
		ctx,
		`insert into job (id, kind, url, status, total, completed, finished_at)
		values (?, ?, ?, ?, ?, ?, ?)
		on conflict (id) do update set
			kind = excluded.kind,
			url = excluded.url,
			status = excluded.status,
			total = excluded.total,
			completed = excluded.completed,
			finished_at = excluded.finished_at`,
		job.Id, job.Kind, job.Url, job.Status, job.Total, job.Completed, job.FinishedAt.Unix(),
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "delete from page where job_id = ?", job.Id)
	if err != nil {
		return err
	}

	for i, doc := range req.Documents {
		var sourceUrl, title string
		var statusCode int
		metadata := []byte("{}")
		if doc.Metadata != nil {
			sourceUrl = doc.Metadata.SourceURL
			title = doc.Metadata.Title
			statusCode = doc.Metadata.StatusCode
			metadata, err = json.Marshal(doc.Metadata)
			if err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(
			ctx,
			`insert into page (job_id, position, source_url, title, status_code, markdown, html, metadata)
			values (?, ?, ?, ?, ?, ?, ?, ?)`,
			job.Id, i, sourceUrl, title, statusCode, doc.Markdown, doc.Html, string(metadata),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Pull returns the documents of a job in the order they were pushed.
func (s Store) Pull(ctx context.Context, jobId string) ([]crawl.Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select markdown, html, metadata from page where job_id = ? order by position",
		jobId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []crawl.Document
	for rows.Next() {
		var doc crawl.Document
		var metadata string
		err = rows.Scan(&doc.Markdown, &doc.Html, &metadata)
		if err != nil {
			return nil, err
		}
		if metadata != "{}" {
			var meta crawl.DocumentMetadata
			err = json.Unmarshal([]byte(metadata), &meta)
			if err != nil {
				slog.WarnContext(ctx, "failed to unmarshal page metadata", "job_id", jobId, "err", err)
			} else {
				doc.Metadata = &meta
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Jobs lists every stored job, most recently finished first.
func (s Store) Jobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select id, kind, url, status, total, completed, finished_at from job order by finished_at desc, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		var finishedAt int64
		err = rows.Scan(&job.Id, &job.Kind, &job.Url, &job.Status, &job.Total, &job.Completed, &finishedAt)
		if err != nil {
			return nil, err
		}
		job.FinishedAt = time.Unix(finishedAt, 0)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

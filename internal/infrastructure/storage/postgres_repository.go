package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/ports"
)

// ErrDuplicateMention marks a unique-constraint violation on mention insert.
// The orchestrator treats it as skippable.
var ErrDuplicateMention = errors.New("mention already exists")

const uniqueViolationCode = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository backs the roster, content, and mention collaborators
// with the application's Postgres schema.
type PostgresRepository struct {
	db *sql.DB
}

var (
	_ ports.AthleteDirectory = (*PostgresRepository)(nil)
	_ ports.ContentStore     = (*PostgresRepository)(nil)
	_ ports.MentionStore     = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// contentTables maps a content type onto its table and body column.
func contentTables(contentType domain.ContentType) (table, bodyColumn string, err error) {
	switch contentType {
	case domain.ContentPodcast:
		return "episodes", "content", nil
	case domain.ContentVideo:
		return "videos", "description", nil
	default:
		return "", "", fmt.Errorf("unknown content type %q", contentType)
	}
}

// ListAthletes reads the roster. Rows with a null identifier are excluded.
func (r *PostgresRepository) ListAthletes(ctx context.Context) ([]domain.Athlete, error) {
	query, args, err := psql.Select("id", "name").From("athletes").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build roster query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query athletes: %w", err)
	}
	defer rows.Close()

	var athletes []domain.Athlete
	for rows.Next() {
		var id, name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan athlete: %w", err)
		}
		if !id.Valid || id.String == "" {
			continue
		}
		athletes = append(athletes, domain.Athlete{ID: id.String, Name: name.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return athletes, nil
}

// GetContentText returns the matchable text of one item, or
// domain.ErrNotFound when the row does not exist.
func (r *PostgresRepository) GetContentText(ctx context.Context, id string, contentType domain.ContentType) (ports.ContentText, error) {
	table, bodyColumn, err := contentTables(contentType)
	if err != nil {
		return ports.ContentText{}, err
	}

	query, args, err := psql.Select("title", bodyColumn).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return ports.ContentText{}, fmt.Errorf("build content query: %w", err)
	}

	var title string
	var body sql.NullString
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&title, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ContentText{}, domain.ErrNotFound
	}
	if err != nil {
		return ports.ContentText{}, fmt.Errorf("query %s %s: %w", contentType, id, err)
	}

	text := ports.ContentText{Title: title}
	if body.Valid {
		text.Body = &body.String
	}
	return text, nil
}

// SelectUnprocessed returns up to limit unprocessed items published within
// maxAge, newest first.
func (r *PostgresRepository) SelectUnprocessed(ctx context.Context, contentType domain.ContentType, maxAge time.Duration, limit int) ([]ports.ContentRef, error) {
	table, _, err := contentTables(contentType)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("id", "title").
		From(table).
		Where(sq.GtOrEq{"published_at": time.Now().Add(-maxAge)}).
		Where("athlete_mentions_processed IS NOT TRUE").
		OrderBy("published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build selection query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed %s: %w", contentType, err)
	}
	defer rows.Close()

	var refs []ports.ContentRef
	for rows.Next() {
		var ref ports.ContentRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("scan content ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return refs, nil
}

// CountUnprocessed reports the full backlog in the age window.
func (r *PostgresRepository) CountUnprocessed(ctx context.Context, contentType domain.ContentType, maxAge time.Duration) (int, error) {
	table, _, err := contentTables(contentType)
	if err != nil {
		return 0, err
	}

	query, args, err := psql.Select("COUNT(*)").
		From(table).
		Where(sq.GtOrEq{"published_at": time.Now().Add(-maxAge)}).
		Where("athlete_mentions_processed IS NOT TRUE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unprocessed %s: %w", contentType, err)
	}
	return count, nil
}

// MarkProcessed flips the processed flag after a successful pass. It is
// never reset by this repository.
func (r *PostgresRepository) MarkProcessed(ctx context.Context, id string, contentType domain.ContentType) error {
	table, _, err := contentTables(contentType)
	if err != nil {
		return err
	}

	query, args, err := psql.Update(table).
		Set("athlete_mentions_processed", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark processed %s %s: %w", contentType, id, err)
	}
	return nil
}

// ListEpisodeIDs resolves all episode IDs of one podcast, newest first.
func (r *PostgresRepository) ListEpisodeIDs(ctx context.Context, podcastID string) ([]string, error) {
	query, args, err := psql.Select("id").
		From("episodes").
		Where(sq.Eq{"podcast_id": podcastID}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build episode query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes for podcast %s: %w", podcastID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan episode id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// DeleteMentions wipes every mention for the (content, type) pair.
func (r *PostgresRepository) DeleteMentions(ctx context.Context, contentID string, contentType domain.ContentType) error {
	query, args, err := psql.Delete("athlete_mentions").
		Where(sq.Eq{"content_id": contentID, "content_type": string(contentType)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete mentions for %s: %w", contentID, err)
	}
	return nil
}

// InsertMention writes one mention row. Unique-constraint violations are
// reported as ErrDuplicateMention.
func (r *PostgresRepository) InsertMention(ctx context.Context, mention domain.AthleteMention) error {
	query, args, err := psql.Insert("athlete_mentions").
		Columns("id", "athlete_id", "content_id", "content_type", "source", "confidence", "context", "created_at").
		Values(
			mention.ID,
			mention.AthleteID,
			mention.ContentID,
			string(mention.ContentType),
			string(mention.Source),
			mention.Confidence.String(),
			mention.Context,
			mention.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("mention %s/%s/%s: %w", mention.AthleteID, mention.ContentID, mention.Source, ErrDuplicateMention)
		}
		return fmt.Errorf("insert mention: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

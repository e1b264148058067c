package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ThqRel/model"
)

// MySQLReleaseRepository MySQL实现的发行仓库
type MySQLReleaseRepository struct {
	db *sql.DB
}

// NewMySQLReleaseRepository 创建新的MySQL发行仓库实例
func NewMySQLReleaseRepository(db *sql.DB) *MySQLReleaseRepository {
	return &MySQLReleaseRepository{db: db}
}

const releaseColumns = `
	id, custom_id, owner_id, kind, tier, status,
	title, artists, genre, subgenres, cover_url, release_date, upc,
	tracks, territories, platforms,
	contract_accepted, contract_accepted_at,
	promo_state, focus_track, focus_track_promo, promo_photos,
	payment_status, payment_receipt_url, payment_comment, payment_amount,
	rejection_reason, approved_at, approved_by, published_at,
	created_at, updated_at`

// Create inserts a new draft and assigns its sequential custom id from the
// release_seq counter table.
func (r *MySQLReleaseRepository) Create(ctx context.Context, rel *model.Release) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin create release tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO release_seq () VALUES ()`)
	if err != nil {
		return fmt.Errorf("failed to advance release sequence: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read release sequence: %w", err)
	}
	rel.CustomID = fmt.Sprintf("thqrel-%04d", seq)

	now := time.Now()
	rel.CreatedAt = now
	rel.UpdatedAt = now

	query := `
		INSERT INTO releases (` + releaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		rel.ID, rel.CustomID, rel.OwnerID, rel.Kind, rel.Tier, rel.Status,
		rel.Title, mustJSON(rel.Artists), rel.Genre, mustJSON(rel.Subgenres), rel.CoverURL, rel.ReleaseDate, rel.UPC,
		mustJSON(rel.Tracks), mustJSON(rel.Territories), mustJSON(rel.Platforms),
		rel.ContractAccepted, nullTime(rel.ContractAcceptedAt),
		rel.PromoState, rel.FocusTrack, rel.FocusTrackPromo, mustJSON(rel.PromoPhotos),
		rel.PaymentStatus, rel.PaymentReceiptURL, rel.PaymentComment, rel.PaymentAmount,
		rel.RejectionReason, nullTime(rel.ApprovedAt), rel.ApprovedBy, nullTime(rel.PublishedAt),
		rel.CreatedAt, rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert release: %w", err)
	}

	return tx.Commit()
}

// GetByID returns the release or ErrNotFound.
func (r *MySQLReleaseRepository) GetByID(ctx context.Context, id string) (*model.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE id = ?`
	rel, err := scanRelease(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan release %s: %w", id, err)
	}
	return rel, nil
}

// ListByOwner returns the owner's releases, newest first.
func (r *MySQLReleaseRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE owner_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases for owner %d: %w", ownerID, err)
	}
	defer rows.Close()
	return collectReleases(rows)
}

// List returns releases matching the filter, newest first.
func (r *MySQLReleaseRepository) List(ctx context.Context, f ReleaseFilter) ([]*model.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE 1=1`
	var args []interface{}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Tier != "" {
		query += " AND tier = ?"
		args = append(args, f.Tier)
	}
	if f.Search != "" {
		query += " AND (title LIKE ? OR custom_id LIKE ?)"
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()
	return collectReleases(rows)
}

// SaveDraft persists the mutable fields, conditioned on the release still
// being editable. Zero affected rows on an existing release means a
// concurrent transition took it out of draft/rejected.
func (r *MySQLReleaseRepository) SaveDraft(ctx context.Context, rel *model.Release) error {
	query := `
		UPDATE releases
		SET title = ?, artists = ?, genre = ?, subgenres = ?, cover_url = ?, release_date = ?,
		    tracks = ?, territories = ?, platforms = ?,
		    contract_accepted = ?, contract_accepted_at = ?,
		    promo_state = ?, focus_track = ?, focus_track_promo = ?, promo_photos = ?,
		    updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		rel.Title, mustJSON(rel.Artists), rel.Genre, mustJSON(rel.Subgenres), rel.CoverURL, rel.ReleaseDate,
		mustJSON(rel.Tracks), mustJSON(rel.Territories), mustJSON(rel.Platforms),
		rel.ContractAccepted, nullTime(rel.ContractAcceptedAt),
		rel.PromoState, rel.FocusTrack, rel.FocusTrackPromo, mustJSON(rel.PromoPhotos),
		time.Now(),
		rel.ID, model.StatusDraft, model.StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", rel.ID, err)
	}
	return r.resolveZeroRows(ctx, res, rel.ID)
}

// CASUpdateStatus applies a lifecycle transition conditioned on the expected
// current status still holding at write time.
func (r *MySQLReleaseRepository) CASUpdateStatus(ctx context.Context, id string, expected model.Status, patch StatusPatch) (*model.Release, error) {
	set := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{patch.Status, time.Now()}

	if patch.ClearRejection {
		set = append(set, "rejection_reason = ''")
	} else if patch.RejectionReason != "" {
		set = append(set, "rejection_reason = ?")
		args = append(args, patch.RejectionReason)
	}
	if patch.ApprovedAt != nil {
		set = append(set, "approved_at = ?", "approved_by = ?")
		args = append(args, *patch.ApprovedAt, patch.ApprovedBy)
	}
	if patch.PublishedAt != nil {
		set = append(set, "published_at = ?")
		args = append(args, *patch.PublishedAt)
	}

	query := "UPDATE releases SET " + strings.Join(set, ", ") + " WHERE id = ? AND status = ?"
	args = append(args, id, expected)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to transition release %s to %s: %w", id, patch.Status, err)
	}
	if err := r.resolveZeroRows(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// CASUpdatePayment applies a payment sub-flow transition conditioned on the
// expected current payment status.
func (r *MySQLReleaseRepository) CASUpdatePayment(ctx context.Context, id string, expected model.PaymentStatus, patch PaymentPatch) (*model.Release, error) {
	set := []string{"payment_status = ?", "updated_at = ?"}
	args := []interface{}{patch.PaymentStatus, time.Now()}

	if patch.ReceiptURL != "" {
		set = append(set, "payment_receipt_url = ?", "payment_comment = ?", "payment_amount = ?")
		args = append(args, patch.ReceiptURL, patch.Comment, patch.Amount)
	}

	query := "UPDATE releases SET " + strings.Join(set, ", ") + " WHERE id = ? AND payment_status = ?"
	args = append(args, id, expected)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to transition payment of release %s: %w", id, err)
	}
	if err := r.resolveZeroRows(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetUPC assigns the UPC of a published release.
func (r *MySQLReleaseRepository) SetUPC(ctx context.Context, id string, upc string) (*model.Release, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE releases SET upc = ?, updated_at = ? WHERE id = ? AND status = ?`,
		upc, time.Now(), id, model.StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set upc on release %s: %w", id, err)
	}
	if err := r.resolveZeroRows(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetTrackISRC assigns the ISRC of one track of a published release. The
// tracks column is rewritten as a whole, conditioned on the status so the
// write cannot race a lifecycle transition.
func (r *MySQLReleaseRepository) SetTrackISRC(ctx context.Context, id string, trackIndex int, isrc string) (*model.Release, error) {
	rel, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trackIndex < 0 || trackIndex >= len(rel.Tracks) {
		return nil, fmt.Errorf("track index %d out of range for release %s", trackIndex, id)
	}
	rel.Tracks[trackIndex].ISRC = isrc

	res, err := r.db.ExecContext(ctx,
		`UPDATE releases SET tracks = ?, updated_at = ? WHERE id = ? AND status = ?`,
		mustJSON(rel.Tracks), time.Now(), id, model.StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set isrc on release %s: %w", id, err)
	}
	if err := r.resolveZeroRows(ctx, res, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the release. The moderation_history rows go with it via
// ON DELETE CASCADE.
func (r *MySQLReleaseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM releases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete release %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendHistory appends one audit record.
func (r *MySQLReleaseRepository) AppendHistory(ctx context.Context, e *model.ModerationEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO moderation_history (release_id, actor_id, action, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ReleaseID, e.ActorID, e.Action, e.Reason, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append moderation history for %s: %w", e.ReleaseID, err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// HistoryByRelease returns the audit trail, oldest first.
func (r *MySQLReleaseRepository) HistoryByRelease(ctx context.Context, id string) ([]model.ModerationEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, release_id, actor_id, action, reason, created_at FROM moderation_history WHERE release_id = ? ORDER BY created_at, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation history for %s: %w", id, err)
	}
	defer rows.Close()

	var entries []model.ModerationEntry
	for rows.Next() {
		var e model.ModerationEntry
		if err := rows.Scan(&e.ID, &e.ReleaseID, &e.ActorID, &e.Action, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan moderation history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// resolveZeroRows distinguishes "row gone" from "row in another state" after
// a conditional update touched nothing.
func (r *MySQLReleaseRepository) resolveZeroRows(ctx context.Context, res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM releases WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check release %s after conditional update: %w", id, err)
	}
	return ErrConflict
}

func collectReleases(rows *sql.Rows) ([]*model.Release, error) {
	var releases []*model.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		releases = append(releases, rel)
	}
	return releases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRelease(row rowScanner) (*model.Release, error) {
	rel := &model.Release{}
	var (
		artists, subgenres, tracks, territories, platforms, promoPhotos []byte
		contractAcceptedAt, approvedAt, publishedAt                     sql.NullTime
	)
	err := row.Scan(
		&rel.ID, &rel.CustomID, &rel.OwnerID, &rel.Kind, &rel.Tier, &rel.Status,
		&rel.Title, &artists, &rel.Genre, &subgenres, &rel.CoverURL, &rel.ReleaseDate, &rel.UPC,
		&tracks, &territories, &platforms,
		&rel.ContractAccepted, &contractAcceptedAt,
		&rel.PromoState, &rel.FocusTrack, &rel.FocusTrackPromo, &promoPhotos,
		&rel.PaymentStatus, &rel.PaymentReceiptURL, &rel.PaymentComment, &rel.PaymentAmount,
		&rel.RejectionReason, &approvedAt, &rel.ApprovedBy, &publishedAt,
		&rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSON(artists, &rel.Artists); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(subgenres, &rel.Subgenres); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tracks, &rel.Tracks); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(territories, &rel.Territories); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(platforms, &rel.Platforms); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(promoPhotos, &rel.PromoPhotos); err != nil {
		return nil, err
	}
	if contractAcceptedAt.Valid {
		rel.ContractAcceptedAt = &contractAcceptedAt.Time
	}
	if approvedAt.Valid {
		rel.ApprovedAt = &approvedAt.Time
	}
	if publishedAt.Valid {
		rel.PublishedAt = &publishedAt.Time
	}
	return rel, nil
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable values, which the model types
		// cannot produce.
		panic(err)
	}
	return b
}

func unmarshalJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

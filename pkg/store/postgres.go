package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tastebud/pkg/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new store. The pool must already be migrated.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// mapPgError translates driver errors into store sentinels.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var e *pgconn.PgError
	if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
		return ErrConflict
	}
	return err
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// --- Query Cache ---

func (s *PostgresStore) GetQueryCache(ctx context.Context, userID, queryHash string) (*model.CacheEntry, error) {
	e := model.CacheEntry{UserID: userID, QueryHash: queryHash}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		"SELECT response, expires_at FROM restaurant_cache WHERE user_id = $1 AND query_hash = $2",
		userID, queryHash).Scan(&raw, &e.ExpiresAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	e.Response = json.RawMessage(raw)
	return &e, nil
}

func (s *PostgresStore) UpsertQueryCache(ctx context.Context, e *model.CacheEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO restaurant_cache (user_id, query_hash, response, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id, query_hash) DO UPDATE SET
			response = EXCLUDED.response,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at`,
		e.UserID, e.QueryHash, []byte(e.Response), e.ExpiresAt)
	return err
}

func (s *PostgresStore) DeleteExpiredQueryCache(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM restaurant_cache WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Preferences ---

func (s *PostgresStore) UpsertPreference(ctx context.Context, p *model.Preference) error {
	ts := orNow(p.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO restaurant_preferences (user_id, restaurant_id, preference, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
			preference = EXCLUDED.preference,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.RestaurantID, string(p.Value), ts)
	return err
}

func (s *PostgresStore) GetPreference(ctx context.Context, userID, restaurantID string) (*model.Preference, error) {
	p := model.Preference{UserID: userID, RestaurantID: restaurantID}
	var value string
	err := s.pool.QueryRow(ctx,
		"SELECT preference, created_at, updated_at FROM restaurant_preferences WHERE user_id = $1 AND restaurant_id = $2",
		userID, restaurantID).Scan(&value, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	p.Value = model.PreferenceValue(value)
	return &p, nil
}

func (s *PostgresStore) ListPreferences(ctx context.Context, userID string) ([]model.Preference, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT restaurant_id, preference, created_at, updated_at FROM restaurant_preferences WHERE user_id = $1",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Preference
	for rows.Next() {
		p := model.Preference{UserID: userID}
		var value string
		if err := rows.Scan(&p.RestaurantID, &value, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Value = model.PreferenceValue(value)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountPreferences(ctx context.Context, restaurantID string, value model.PreferenceValue) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM restaurant_preferences WHERE restaurant_id = $1 AND preference = $2",
		restaurantID, string(value)).Scan(&n)
	return n, err
}

// --- Posts ---

const pgPostColumns = `p.id::text, p.user_id, p.images, p.caption, p.location, p.created_at, p.updated_at,
	u.id, u.email, u.full_name, u.avatar_url, u.bio`

func scanPgPost(r pgx.Row) (*model.Post, error) {
	var p model.Post
	var uid, email *string
	var summary model.UserSummary
	if err := r.Scan(&p.ID, &p.UserID, &p.Images, &p.Caption, &p.Location, &p.CreatedAt, &p.UpdatedAt,
		&uid, &email, &summary.FullName, &summary.AvatarURL, &summary.Bio); err != nil {
		return nil, err
	}
	if uid != nil {
		summary.ID = *uid
		if email != nil {
			summary.Email = *email
		}
		p.User = &summary
	}
	return &p, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p *model.Post) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO posts (id, user_id, images, caption, location, created_at, updated_at) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)",
		p.ID, p.UserID, p.Images, p.Caption, p.Location, orNow(p.CreatedAt), orNow(p.UpdatedAt))
	return mapPgError(err)
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+pgPostColumns+" FROM posts p LEFT JOIN users u ON u.id = p.user_id WHERE p.id = $1::uuid", id)
	p, err := scanPgPost(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, id string, u model.PostUpdate) (*model.Post, error) {
	sets := []string{"updated_at = $1"}
	args := []any{orNow(u.UpdatedAt)}
	next := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if u.Images != nil {
		next("images", u.Images)
	}
	if u.Caption != nil {
		next("caption", *u.Caption)
	}
	switch {
	case u.ClearLocation:
		sets = append(sets, "location = NULL")
	case u.Location != nil:
		next("location", *u.Location)
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		"UPDATE posts SET "+strings.Join(sets, ", ")+" WHERE id = $"+strconv.Itoa(len(args))+"::uuid", args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *PostgresStore) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1::uuid", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPostsByUser(ctx context.Context, userID string, page model.Page) ([]model.Post, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM posts WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+pgPostColumns+` FROM posts p LEFT JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPgPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

// --- Follows ---

func (s *PostgresStore) CreateFollow(ctx context.Context, f *model.Follow) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO user_followers (id, follower_id, following_id, created_at) VALUES ($1::uuid, $2, $3, $4)",
		f.ID, f.FollowerID, f.FollowingID, orNow(f.CreatedAt))
	return mapPgError(err)
}

func (s *PostgresStore) GetFollow(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	f := model.Follow{FollowerID: followerID, FollowingID: followingID}
	err := s.pool.QueryRow(ctx,
		"SELECT id::text, created_at FROM user_followers WHERE follower_id = $1 AND following_id = $2",
		followerID, followingID).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &f, nil
}

func (s *PostgresStore) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM user_followers WHERE follower_id = $1 AND following_id = $2", followerID, followingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListFollowers(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error) {
	return s.listFollows(ctx, "following_id", "follower_id", userID, page)
}

func (s *PostgresStore) ListFollowing(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error) {
	return s.listFollows(ctx, "follower_id", "following_id", userID, page)
}

func (s *PostgresStore) listFollows(ctx context.Context, matchCol, embedCol, userID string, page model.Page) ([]model.Follow, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM user_followers WHERE "+matchCol+" = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT f.id::text, f.follower_id, f.following_id, f.created_at,
			u.id, u.email, u.full_name, u.avatar_url, u.bio
		 FROM user_followers f LEFT JOIN users u ON u.id = f.`+embedCol+`
		 WHERE f.`+matchCol+` = $1 ORDER BY f.created_at DESC, f.id DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	follows := []model.Follow{}
	for rows.Next() {
		var f model.Follow
		var uid, email *string
		var summary model.UserSummary
		if err := rows.Scan(&f.ID, &f.FollowerID, &f.FollowingID, &f.CreatedAt,
			&uid, &email, &summary.FullName, &summary.AvatarURL, &summary.Bio); err != nil {
			return nil, 0, err
		}
		if uid != nil {
			summary.ID = *uid
			if email != nil {
				summary.Email = *email
			}
			f.User = &summary
		}
		follows = append(follows, f)
	}
	return follows, total, rows.Err()
}

// --- Profiles ---

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p := model.Profile{ID: id}
	err := s.pool.QueryRow(ctx,
		"SELECT email, full_name, avatar_url, bio, created_at, updated_at FROM users WHERE id = $1", id).
		Scan(&p.Email, &p.FullName, &p.AvatarURL, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO users (id, email, full_name, avatar_url, bio, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		p.ID, p.Email, p.FullName, p.AvatarURL, p.Bio, orNow(p.CreatedAt), orNow(p.UpdatedAt))
	return mapPgError(err)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	sets := []string{"updated_at = $1"}
	args := []any{orNow(u.UpdatedAt)}
	next := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if u.FullName != nil {
		next("full_name", *u.FullName)
	}
	if u.AvatarURL != nil {
		next("avatar_url", *u.AvatarURL)
	}
	if u.Bio != nil {
		next("bio", *u.Bio)
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

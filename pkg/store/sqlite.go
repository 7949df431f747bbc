package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tastebud/pkg/db"
	"tastebud/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// --- Query Cache ---

func (s *SQLiteStore) GetQueryCache(ctx context.Context, userID, queryHash string) (*model.CacheEntry, error) {
	var raw []byte
	var expires int64
	err := s.db.QueryRowContext(ctx,
		"SELECT response, expires_at FROM restaurant_cache WHERE user_id = ? AND query_hash = ?",
		userID, queryHash).Scan(&raw, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress cached response: %w", err)
	}
	return &model.CacheEntry{
		UserID:    userID,
		QueryHash: queryHash,
		Response:  json.RawMessage(data),
		ExpiresAt: fromMillis(expires),
	}, nil
}

func (s *SQLiteStore) UpsertQueryCache(ctx context.Context, e *model.CacheEntry) error {
	val := []byte(e.Response)
	if compressed, err := compress(val); err == nil {
		val = compressed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_cache (user_id, query_hash, response, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, query_hash) DO UPDATE SET
			response = excluded.response,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		e.UserID, e.QueryHash, val, e.ExpiresAt.UnixMilli(), time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) DeleteExpiredQueryCache(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM restaurant_cache WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Preferences ---

func (s *SQLiteStore) UpsertPreference(ctx context.Context, p *model.Preference) error {
	ts := toMillis(p.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_preferences (user_id, restaurant_id, preference, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
			preference = excluded.preference,
			updated_at = excluded.updated_at`,
		p.UserID, p.RestaurantID, string(p.Value), ts, ts)
	return err
}

func (s *SQLiteStore) GetPreference(ctx context.Context, userID, restaurantID string) (*model.Preference, error) {
	p := model.Preference{UserID: userID, RestaurantID: restaurantID}
	var value string
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT preference, created_at, updated_at FROM restaurant_preferences WHERE user_id = ? AND restaurant_id = ?",
		userID, restaurantID).Scan(&value, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Value = model.PreferenceValue(value)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func (s *SQLiteStore) ListPreferences(ctx context.Context, userID string) ([]model.Preference, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT restaurant_id, preference, created_at, updated_at FROM restaurant_preferences WHERE user_id = ?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Preference
	for rows.Next() {
		p := model.Preference{UserID: userID}
		var value string
		var created, updated int64
		if err := rows.Scan(&p.RestaurantID, &value, &created, &updated); err != nil {
			return nil, err
		}
		p.Value = model.PreferenceValue(value)
		p.CreatedAt = fromMillis(created)
		p.UpdatedAt = fromMillis(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountPreferences(ctx context.Context, restaurantID string, value model.PreferenceValue) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM restaurant_preferences WHERE restaurant_id = ? AND preference = ?",
		restaurantID, string(value)).Scan(&n)
	return n, err
}

// --- Posts ---

func (s *SQLiteStore) CreatePost(ctx context.Context, p *model.Post) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO posts (id, user_id, images, caption, location, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.UserID, string(images), p.Caption, p.Location, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	return err
}

const postColumns = `p.id, p.user_id, p.images, p.caption, p.location, p.created_at, p.updated_at,
	u.id, u.email, u.full_name, u.avatar_url, u.bio`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (*model.Post, error) {
	var p model.Post
	var images string
	var location sql.NullString
	var created, updated int64
	var uid, email, fullName, avatar, bio sql.NullString

	if err := r.Scan(&p.ID, &p.UserID, &images, &p.Caption, &location, &created, &updated,
		&uid, &email, &fullName, &avatar, &bio); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decode images of post %s: %w", p.ID, err)
	}
	p.Location = nullString(location)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	if uid.Valid {
		p.User = &model.UserSummary{
			ID:        uid.String,
			Email:     email.String,
			FullName:  nullString(fullName),
			AvatarURL: nullString(avatar),
			Bio:       nullString(bio),
		}
	}
	return &p, nil
}

func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts p LEFT JOIN users u ON u.id = p.user_id WHERE p.id = ?", id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) UpdatePost(ctx context.Context, id string, u model.PostUpdate) (*model.Post, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(u.UpdatedAt)}

	if u.Images != nil {
		images, err := json.Marshal(u.Images)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "images = ?")
		args = append(args, string(images))
	}
	if u.Caption != nil {
		sets = append(sets, "caption = ?")
		args = append(args, *u.Caption)
	}
	switch {
	case u.ClearLocation:
		sets = append(sets, "location = NULL")
	case u.Location != nil:
		sets = append(sets, "location = ?")
		args = append(args, *u.Location)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE posts SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *SQLiteStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListPostsByUser(ctx context.Context, userID string, page model.Page) ([]model.Post, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM posts WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postColumns+` FROM posts p LEFT JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

// --- Follows ---

func (s *SQLiteStore) CreateFollow(ctx context.Context, f *model.Follow) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_followers (id, follower_id, following_id, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (follower_id, following_id) DO NOTHING`,
		f.ID, f.FollowerID, f.FollowingID, toMillis(f.CreatedAt))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) GetFollow(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	f := model.Follow{FollowerID: followerID, FollowingID: followingID}
	var created int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM user_followers WHERE follower_id = ? AND following_id = ?",
		followerID, followingID).Scan(&f.ID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.CreatedAt = fromMillis(created)
	return &f, nil
}

func (s *SQLiteStore) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM user_followers WHERE follower_id = ? AND following_id = ?", followerID, followingID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListFollowers(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error) {
	return s.listFollows(ctx, "following_id", "follower_id", userID, page)
}

func (s *SQLiteStore) ListFollowing(ctx context.Context, userID string, page model.Page) ([]model.Follow, int64, error) {
	return s.listFollows(ctx, "follower_id", "following_id", userID, page)
}

// listFollows filters on matchCol and embeds the profile referenced by embedCol.
// Both column names are constants supplied by this file.
func (s *SQLiteStore) listFollows(ctx context.Context, matchCol, embedCol, userID string, page model.Page) ([]model.Follow, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM user_followers WHERE "+matchCol+" = ?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.follower_id, f.following_id, f.created_at,
			u.id, u.email, u.full_name, u.avatar_url, u.bio
		 FROM user_followers f LEFT JOIN users u ON u.id = f.`+embedCol+`
		 WHERE f.`+matchCol+` = ? ORDER BY f.created_at DESC, f.id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	follows := []model.Follow{}
	for rows.Next() {
		var f model.Follow
		var created int64
		var uid, email, fullName, avatar, bio sql.NullString
		if err := rows.Scan(&f.ID, &f.FollowerID, &f.FollowingID, &created,
			&uid, &email, &fullName, &avatar, &bio); err != nil {
			return nil, 0, err
		}
		f.CreatedAt = fromMillis(created)
		if uid.Valid {
			f.User = &model.UserSummary{
				ID:        uid.String,
				Email:     email.String,
				FullName:  nullString(fullName),
				AvatarURL: nullString(avatar),
				Bio:       nullString(bio),
			}
		}
		follows = append(follows, f)
	}
	return follows, total, rows.Err()
}

// --- Profiles ---

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p := model.Profile{ID: id}
	var fullName, avatar, bio sql.NullString
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT email, full_name, avatar_url, bio, created_at, updated_at FROM users WHERE id = ?", id).
		Scan(&p.Email, &fullName, &avatar, &bio, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.FullName = nullString(fullName)
	p.AvatarURL = nullString(avatar)
	p.Bio = nullString(bio)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func (s *SQLiteStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, avatar_url, bio, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Email, p.FullName, p.AvatarURL, p.Bio, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(u.UpdatedAt)}
	if u.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *u.FullName)
	}
	if u.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *u.AvatarURL)
	}
	if u.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *u.Bio)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

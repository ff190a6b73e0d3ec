package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrInvalidRefresh covers unknown, revoked and expired refresh tokens.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// TokenRepo keeps refresh tokens as SHA-256 hashes.  A token is live while
// it is neither revoked nor past expires_at.
type TokenRepo struct {
    db DBTX
}

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{db: db} }

const liveToken = "token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()"

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
        userID, tokenHash, exp.UTC())
    return err
}

// ValidateRefresh returns the owner of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    var userID uint64
    err := r.db.QueryRowContext(ctx, "SELECT user_id FROM refresh_tokens WHERE "+liveToken, tokenHash).Scan(&userID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrInvalidRefresh
    }
    return userID, err
}

// RevokeByHash revokes one live token.  Revoking a token that is not live
// yields ErrInvalidRefresh, so a token can be spent only once.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    res, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE "+liveToken, tokenHash)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInvalidRefresh
    }
    return nil
}

// RevokeAllForUser ends every session of the user; used by logout without
// a refresh token and after a password change.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL", userID)
    return err
}

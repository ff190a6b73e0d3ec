package utils // package utils provides token and password helpers shared by handlers and middleware

import (
    "crypto/rand"   // secure random bytes for refresh tokens
    "crypto/sha256" // refresh tokens are stored hashed
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by ParseAccessToken for any unusable token.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
    Token string    // serialized JWT
    Exp   time.Time // UTC expiration time
}

// RefreshToken is the raw value handed to the client.  Only its hash is
// persisted.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Principal is what a verified access token says about its bearer.
type Principal struct {
    UserID uint64
    Role   string
}

// NewAccessToken signs a token carrying the user id in "sub" and the role
// in "role".
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10), // RFC 7519 wants a string subject
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and extracts
// the principal.
func ParseAccessToken(secret, raw string) (Principal, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return Principal{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Principal{}, ErrInvalidToken
    }
    var p Principal
    switch sub := claims["sub"].(type) {
    case string:
        n, err := strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return Principal{}, ErrInvalidToken
        }
        p.UserID = n
    case float64:
        p.UserID = uint64(sub)
    default:
        return Principal{}, ErrInvalidToken
    }
    p.Role, _ = claims["role"].(string)
    if p.UserID == 0 || p.Role == "" {
        return Principal{}, ErrInvalidToken
    }
    return p, nil
}

// NewRefreshToken returns a random 96-char hex token valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    buf := make([]byte, 48)
    if _, err := rand.Read(buf); err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: hex.EncodeToString(buf),
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

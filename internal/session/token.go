package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/playsevenate9/backend/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid seat token")
	ErrMissingToken = errors.New("missing seat token")
)

// Claims identify one participant seated in one room
type Claims struct {
	RoomCode  string `json:"room_code"`
	SessionID string `json:"session_id"`
	Seat      int    `json:"seat"`
}

// Issuer signs and verifies seat tokens with HS256
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an issuer from config
func NewIssuer(cfg *config.Config) *Issuer {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Issuer{secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}
}

// NewSessionID returns a fresh participant id
func NewSessionID() string {
	return uuid.NewString()
}

// Issue signs a token for a seat
func (i *Issuer) Issue(c Claims) (string, error) {
	if c.RoomCode == "" || c.SessionID == "" || c.Seat < 0 {
		return "", fmt.Errorf("incomplete claims: %+v", c)
	}
	exp := i.now().Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"room_code":  c.RoomCode,
		"session_id": c.SessionID,
		"seat":       c.Seat,
		"exp":        exp.Unix(),
	})
	return token.SignedString(i.secret)
}

// Parse verifies a token and returns its claims
func (i *Issuer) Parse(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	code, _ := mc["room_code"].(string)
	sid, _ := mc["session_id"].(string)
	seatf, ok := mc["seat"].(float64)
	if code == "" || sid == "" || !ok {
		return Claims{}, ErrInvalidToken
	}
	if _, err := uuid.Parse(sid); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{RoomCode: code, SessionID: sid, Seat: int(seatf)}, nil
}

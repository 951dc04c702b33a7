package jwt

import (
	"errors"
	"slices"
	"strings"
	"time"

	"therapyspace/internal/domain"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues and checks client passes. A pass lists the bookings and
// recurring series created from one browser; the email is informational
// and grants nothing.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	Email    string   `json:"email"`
	Bookings []string `json:"bookings,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	jwtlib.RegisteredClaims
}

// Viewer converts the pass into the identity used for ownership checks.
func (c *Claims) Viewer() domain.Viewer {
	return domain.Viewer{
		ID:         c.Subject,
		Email:      c.Email,
		BookingIDs: c.Bookings,
		GroupIDs:   c.Groups,
	}
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a pass for v. A viewer without an id gets a fresh one.
func (s *Service) Issue(v domain.Viewer) (string, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := s.now()
	claims := Claims{
		Email:    strings.ToLower(strings.TrimSpace(v.Email)),
		Bookings: v.BookingIDs,
		Groups:   v.GroupIDs,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   v.ID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Extend adds bookings and series to prev and re-signs it. An empty or
// invalid prev starts a new pass.
func (s *Service) Extend(prev, email string, bookingIDs, groupIDs []string) (string, error) {
	var v domain.Viewer
	if prev != "" {
		if claims, err := s.ValidateToken(prev); err == nil {
			v = claims.Viewer()
		}
	}
	v.Email = email
	v.BookingIDs = merge(v.BookingIDs, bookingIDs)
	v.GroupIDs = merge(v.GroupIDs, groupIDs)
	return s.Issue(v)
}

func merge(have, add []string) []string {
	out := slices.Clone(have)
	for _, id := range add {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" || len(claims.Bookings)+len(claims.Groups) == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

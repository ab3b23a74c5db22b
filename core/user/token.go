package user

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

var (
	signingMethod = jwt.SigningMethodHS256
	nowFunc       = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// UserID returns the id carried by the token subject.
func (c Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return 0, errInvalidToken
	}
	return id, nil
}

type tokenIssuer struct {
	secret  []byte
	issuer  string
	expires time.Duration
}

func (ti tokenIssuer) claimsFor(usr User) *Claims {
	now := nowFunc()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expires)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// generate returns a signed token string for usr.
func (ti tokenIssuer) generate(usr User) (string, error) {
	token := jwt.NewWithClaims(signingMethod, ti.claimsFor(usr))
	ss, err := token.SignedString(ti.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parse validates the signature and expiry of a token string.
func (ti tokenIssuer) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errInvalidToken
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{signingMethod.Alg()}))
	claims := new(Claims)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

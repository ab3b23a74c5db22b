package user

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParseToken(t *testing.T) {
	ti := tokenIssuer{secret: []byte("secret"), issuer: "InFort RH", expires: 7 * 24 * time.Hour}
	usr := User{ID: 1, Name: "Ana", Email: "ana@infort.test", Role: RoleEmployee, Status: StatusActive}

	validToken, err := ti.generate(usr)
	require.NoError(t, err)

	// generate an expired token
	nowFunc = func() time.Time { return time.Now().Add(-(ti.expires + time.Hour)) }
	expiredToken, err := ti.generate(usr)
	nowFunc = time.Now // reset
	require.NoError(t, err)

	otherIssuer := ti
	otherIssuer.secret = []byte("other")
	forgedToken, err := otherIssuer.generate(usr)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, ti.claimsFor(usr)).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", wantErr: errInvalidToken},
		{name: "garbage", token: "lmaooolol", wantErr: errInvalidToken},
		{name: "wrong secret", token: forgedToken, wantErr: errInvalidToken},
		{name: "none alg", token: noneToken, wantErr: errInvalidToken},
		{name: "expired token", token: expiredToken, wantErr: errInvalidToken},
		{name: "valid token", token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ti.parse(tt.token)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			id, err := claims.UserID()
			require.NoError(t, err)
			assert.Equal(t, usr.ID, id)
			assert.Equal(t, RoleEmployee, claims.Role)
			assert.WithinDuration(t, time.Now().Add(ti.expires), claims.ExpiresAt.Time, time.Minute)
		})
	}
}

func TestPassword(t *testing.T) {
	usr := User{}
	assert.Error(t, usr.CheckPassword(""))

	require.NoError(t, usr.SetPassword("s3cr3t"))
	assert.True(t, usr.PasswordHash.Valid)
	assert.NotEqual(t, "s3cr3t", usr.PasswordHash.String)
	assert.NoError(t, usr.CheckPassword("s3cr3t"))
	assert.Error(t, usr.CheckPassword("wrong"))

	usr.ClearPassword()
	assert.False(t, usr.PasswordHash.Valid)
	assert.True(t, usr.NeedsPasswordSetup)
	assert.Error(t, usr.CheckPassword("s3cr3t"))
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerify(t *testing.T) {
	const secret = "s3cret-collector-key"

	valid, err := IssueToken(secret, "browser-extension", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := IssueToken(secret, "browser-extension", -time.Minute)
	foreign, _ := IssueToken("another-secret", "browser-extension", time.Hour)
	wrongAud, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"admin"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))

	cases := []struct {
		name       string
		secret     string
		credential string
		want       error
	}{
		{"static secret", secret, secret, nil},
		{"signed token", secret, valid, nil},
		{"empty", secret, "", ErrMissingCredential},
		{"wrong static", secret, "guess", ErrBadCredential},
		{"expired token", secret, expired, ErrBadCredential},
		{"foreign signature", secret, foreign, ErrBadCredential},
		{"wrong audience", secret, wrongAud, ErrBadCredential},
		{"unconfigured", "", secret, ErrNoSecret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(tc.secret, tc.credential)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

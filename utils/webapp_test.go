package utils

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testToken = "123456:ABC-DEF"

func signed(authDate time.Time, user string) string {
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	v.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	v.Set("user", user)
	v.Set("hash", SignInitData(v, testToken))
	return v.Encode()
}

func TestVerifyInitData(t *testing.T) {
	now := time.Now()
	raw := signed(now.Add(-time.Minute), `{"id":500,"username":"abebe","first_name":"Abebe","last_name":"Kebede"}`)

	user, err := VerifyInitData(raw, testToken, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("VerifyInitData: %v", err)
	}
	if user.ID != 500 || user.Username != "abebe" || user.FullName() != "Abebe Kebede" {
		t.Errorf("user = %+v", user)
	}
}

func TestVerifyInitDataRejects(t *testing.T) {
	now := time.Now()
	good := signed(now, `{"id":500}`)

	tampered, _ := url.ParseQuery(good)
	tampered.Set("user", `{"id":501}`)

	tests := []struct {
		name  string
		raw   string
		token string
	}{
		{"wrong token", good, "other:token"},
		{"tampered user", tampered.Encode(), testToken},
		{"expired", signed(now.Add(-48*time.Hour), `{"id":500}`), testToken},
		{"no user", signed(now, ``), testToken},
		{"no hash", "auth_date=1&user=%7B%7D", testToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyInitData(tt.raw, tt.token, 24*time.Hour, now); !errors.Is(err, ErrInitData) {
				t.Errorf("err = %v, want ErrInitData", err)
			}
		})
	}
}

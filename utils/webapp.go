package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInitData = errors.New("invalid telegram init data")

// WebAppUser is the user object embedded in Telegram mini app init data.
type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u WebAppUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SignInitData computes the hash Telegram attaches to mini app init data.
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyInitData checks the signature and age of raw init data and returns
// the user it was issued for. maxAge <= 0 disables the age check.
func VerifyInitData(raw, botToken string, maxAge time.Duration, now time.Time) (WebAppUser, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return WebAppUser{}, fmt.Errorf("%w: %v", ErrInitData, err)
	}
	got := values.Get("hash")
	if got == "" {
		return WebAppUser{}, fmt.Errorf("%w: missing hash", ErrInitData)
	}
	if !hmac.Equal([]byte(got), []byte(SignInitData(values, botToken))) {
		return WebAppUser{}, fmt.Errorf("%w: bad signature", ErrInitData)
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return WebAppUser{}, fmt.Errorf("%w: bad auth_date", ErrInitData)
		}
		if now.Sub(time.Unix(authDate, 0)) > maxAge {
			return WebAppUser{}, fmt.Errorf("%w: expired", ErrInitData)
		}
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return WebAppUser{}, fmt.Errorf("%w: no user", ErrInitData)
	}
	return user, nil
}

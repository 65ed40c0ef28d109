package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anjiri1684/edirpay/models"
)

var ErrBadCode = errors.New("invalid submission code")

// ParseSubmissionCode accepts "#EUDE0042", "EUDE42" or a bare row id.
func ParseSubmissionCode(code string) (uint, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	code = strings.TrimPrefix(code, "#")
	code = strings.TrimPrefix(code, strings.TrimPrefix(models.CodePrefix, "#"))
	if code == "" {
		return 0, ErrBadCode
	}
	id, err := strconv.ParseUint(code, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrBadCode
	}
	return uint(id), nil
}

const callbackSep = ":"

// EncodeCallback builds the inline button payload for a decision.
func EncodeCallback(action string, id uint) string {
	return fmt.Sprintf("%s%s%d", action, callbackSep, id)
}

// DecodeCallback splits a button payload into action and submission id. It
// does not check that the action is known.
func DecodeCallback(data string) (string, uint, error) {
	action, rawID, ok := strings.Cut(data, callbackSep)
	if !ok || action == "" {
		return "", 0, fmt.Errorf("invalid callback data %q", data)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return "", 0, fmt.Errorf("invalid callback id %q", rawID)
	}
	return action, uint(id), nil
}

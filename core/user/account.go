package user

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrUnknownRole = errors.New("unknown role")

// MarshalAccount serializes an Account. The role field discriminates Students from Teachers.
func MarshalAccount(acct Account) ([]byte, error) {
	if acct == nil {
		return nil, errors.New("nil account")
	}
	return json.Marshal(acct)
}

// UnmarshalAccount decodes a payload written by MarshalAccount.
func UnmarshalAccount(data []byte) (Account, error) {
	var head struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "decoding account role")
	}

	var acct Account
	switch head.Role {
	case RoleTeacher:
		acct = new(Teacher)
	case RoleStudent:
		acct = new(Student)
	default:
		return nil, errors.Wrapf(ErrUnknownRole, "decoding account: %q", head.Role)
	}
	if err := json.Unmarshal(data, acct); err != nil {
		return nil, errors.Wrap(err, "decoding account")
	}
	if acct.Identity().ID == "" {
		return nil, errors.New("decoding account: missing id")
	}
	return acct, nil
}

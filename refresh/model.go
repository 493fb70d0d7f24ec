package refresh

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexlify/authcore/device"
)

// Token is the persisted record of one opaque refresh token. The raw
// token value is never stored; records are keyed and linked by the
// value's SHA-256 hash.
//
// A record is in exactly one of three states:
//
//   - active: Active is true and ExpiresAt is in the future. Usable
//     exactly once, for rotation or logout.
//   - revoked-replaced: Active is false and ReplacedBy names the
//     successor's hash. Produced by rotation. Presenting such a token
//     again is a structural replay signal.
//   - revoked-terminal: Active is false and ReplacedBy is empty.
//     Produced by logout or revoke-all.
//
// Once inactive a record never becomes active again. The only mutation
// ever applied is the revocation transition, executed atomically inside
// the store's Lua scripts; Go code never rewrites a persisted record.
type Token struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"user_id"`
	Active      bool        `json:"active"`
	CreatedAt   int64       `json:"created_at"`
	ExpiresAt   int64       `json:"expires_at"`
	CreatedByIP string      `json:"created_by_ip,omitempty"`
	RevokedAt   int64       `json:"revoked_at,omitempty"`
	RevokedByIP string      `json:"revoked_by_ip,omitempty"`
	ReplacedBy  string      `json:"replaced_by,omitempty"`
	Device      device.Info `json:"device"`
}

func encodeToken(t *Token) ([]byte, error) {
	return json.Marshal(t)
}

func decodeToken(data []byte) (*Token, error) {
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if t.UserID == "" {
		return nil, ErrCorruptRecord
	}
	return &t, nil
}

// UsableAt reports whether the record is active and unexpired at the
// given instant. Expiry is enforced here, at read time, independent of
// when Redis actually evicts the key.
func (t *Token) UsableAt(now time.Time) bool {
	return t != nil && t.Active && t.ExpiresAt > now.Unix()
}

// Replaced reports whether the record was retired by rotation.
func (t *Token) Replaced() bool {
	return t != nil && !t.Active && t.ReplacedBy != ""
}

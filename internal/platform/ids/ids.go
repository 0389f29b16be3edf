// Package ids は公開IDとして使う ULID の払い出し
package ids

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Generator interface {
	New() (string, error)
}

// ULID は単調増加エントロピーを共有する。ulid.Monotonic は並行安全ではないので mutex で守る
type ULID struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewULID() *ULID {
	return &ULID{entropy: ulid.Monotonic(rand.Reader, 0), now: time.Now}
}

func (g *ULID) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID は文字列が ULID として正しいか
func IsULID(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Fixed はテスト用の固定ID
type Fixed string

func (f Fixed) New() (string, error) { return string(f), nil }

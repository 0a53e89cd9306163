// Package fixtures builds the literal data scenarios type into the target
// applications: timestamp-suffixed unique identifiers, the derived record set
// of an admin-portal run and registration records read from CSV.
package fixtures

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPrefix is used when UniqueID is called with an empty prefix.
const DefaultPrefix = "auto_test"

var (
	idMu   sync.Mutex
	lastMS int64
	now    = time.Now
)

// UniqueID returns prefix_<unix millis>. Values are strictly increasing within
// a process: two calls in the same millisecond get consecutive suffixes.
func UniqueID(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + strconv.FormatInt(nextMillis(), 10)
}

func nextMillis() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	ms := now().UnixMilli()
	if ms <= lastMS {
		ms = lastMS + 1
	}
	lastMS = ms
	return ms
}

// UniqueEmail generates a unique address for sign-up flows.
func UniqueEmail(prefix string) string {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		panic(fmt.Sprintf("failed to generate unique email suffix: %v", err))
	}
	if prefix == "" {
		prefix = "qa"
	}
	return fmt.Sprintf("%s.%d.%s@example.com", strings.ToLower(prefix), nextMillis(), hex.EncodeToString(suffix))
}

package lock

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// LockInfo contains metadata about who holds a lock.
type LockInfo struct {
	User     string    `json:"user"`
	Hostname string    `json:"hostname"`
	Started  time.Time `json:"started"`
	// Updated is refreshed by the holder's heartbeat.
	Updated time.Time `json:"updated"`
	PID     int       `json:"pid"`
	Server  string    `json:"server,omitempty"`
}

// NewLockInfo creates a LockInfo for this process watching server.
func NewLockInfo(server string, now time.Time) *LockInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	if user == "" {
		user = "unknown"
	}

	return &LockInfo{
		User:     user,
		Hostname: hostname,
		Started:  now,
		Updated:  now,
		PID:      os.Getpid(),
		Server:   server,
	}
}

// Age returns how long ago the holder last refreshed the lock.
func (i *LockInfo) Age(now time.Time) time.Duration {
	return now.Sub(i.Updated)
}

// Marshal serializes the LockInfo to JSON.
func (i *LockInfo) Marshal() ([]byte, error) {
	return json.Marshal(i)
}

// ParseLockInfo deserializes JSON data into a LockInfo.
func ParseLockInfo(data []byte) (*LockInfo, error) {
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// String returns a human-readable description of who holds the lock.
func (i *LockInfo) String() string {
	return i.User + "@" + i.Hostname + " (pid " + strconv.Itoa(i.PID) + ")"
}

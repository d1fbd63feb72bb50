package seedstore

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

// UserRecord is the account shape the galaxy master reads from the
// coordination store. Field names follow the master's record schema.
type UserRecord struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Superuser bool   `json:"super_user"`
	Workspace string `json:"workspace"`
}

// QuotaRecord assigns a cpu/memory budget to a target (a user uid or the
// cluster itself). CPUAssigned is in millicores, MemAssigned in bytes.
type QuotaRecord struct {
	QID         string `json:"qid"`
	Name        string `json:"name"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	CPUAssigned int64  `json:"cpu_assigned"`
	MemAssigned int64  `json:"mem_assigned"`
}

const (
	QuotaTypeUser    = "user"
	QuotaTypeCluster = "cluster"
)

// Store writes provisioning records into the scheduler's coordination
// store. Records live under <prefix>/<id> keys.
type Store struct {
	client      *redis.Client
	userPrefix  string
	quotaPrefix string
}

func New(addr, userPrefix, quotaPrefix string) *Store {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &Store{client: client, userPrefix: userPrefix, quotaPrefix: quotaPrefix}
}

// NewWithClient injects a client, for tests.
func NewWithClient(client *redis.Client, userPrefix, quotaPrefix string) *Store {
	return &Store{client: client, userPrefix: userPrefix, quotaPrefix: quotaPrefix}
}

func (s *Store) PutUser(u UserRecord) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.Wrapf(err, "fail to encode user %s", u.Name)
	}
	if err := s.client.Set(s.userPrefix+"/"+u.UID, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "fail to put user %s", u.Name)
	}
	return nil
}

func (s *Store) DeleteUser(uid string) error {
	if err := s.client.Del(s.userPrefix + "/" + uid).Err(); err != nil {
		return errors.Wrapf(err, "fail to delete user %s", uid)
	}
	return nil
}

func (s *Store) GetUser(uid string) (UserRecord, error) {
	data, err := s.client.Get(s.userPrefix + "/" + uid).Bytes()
	if err != nil {
		return UserRecord{}, errors.Wrapf(err, "fail to get user %s", uid)
	}
	var u UserRecord
	if err := json.Unmarshal(data, &u); err != nil {
		return UserRecord{}, errors.Wrapf(err, "fail to decode user %s", uid)
	}
	return u, nil
}

func (s *Store) PutQuota(q QuotaRecord) error {
	data, err := json.Marshal(q)
	if err != nil {
		return errors.Wrapf(err, "fail to encode quota %s", q.QID)
	}
	if err := s.client.Set(s.quotaPrefix+"/"+q.QID, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "fail to put quota %s", q.QID)
	}
	return nil
}

func (s *Store) GetQuota(qid string) (QuotaRecord, error) {
	data, err := s.client.Get(s.quotaPrefix + "/" + qid).Bytes()
	if err != nil {
		return QuotaRecord{}, errors.Wrapf(err, "fail to get quota %s", qid)
	}
	var q QuotaRecord
	if err := json.Unmarshal(data, &q); err != nil {
		return QuotaRecord{}, errors.Wrapf(err, "fail to decode quota %s", qid)
	}
	return q, nil
}

// ParseMemory converts a human memory string with a T, G, or M suffix to
// bytes. A bare number is taken as bytes already.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("memory is required")
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "T"):
		multiplier = int64(1) << 40
		s = strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "G"):
		multiplier = int64(1) << 30
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "M"):
		multiplier = int64(1) << 20
		s = strings.TrimSuffix(s, "M")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid memory value %q", s)
	}
	return n * multiplier, nil
}

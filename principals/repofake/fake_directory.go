package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/carelink/care-auth-server/principals"
)

var _ principals.Directory = (*FakeDirectory)(nil)

// FakeDirectory is an in-memory Directory used in tests and for running the
// server without a database.
type FakeDirectory struct {
	records     map[int64]*principals.Record
	usernameIds map[string]int64 // username to record id
	nextID      int64
	lock        sync.RWMutex
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		records:     make(map[int64]*principals.Record),
		usernameIds: make(map[string]int64),
		nextID:      1,
	}
}

func (d *FakeDirectory) Create(_ context.Context, record *principals.Record) (*principals.Record, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if _, ok := d.usernameIds[record.Username]; ok {
		return nil, principals.ErrUsernameTaken
	}

	stored := *record
	stored.ID = d.nextID
	d.nextID++

	d.records[stored.ID] = &stored
	d.usernameIds[stored.Username] = stored.ID

	result := stored
	return &result, nil
}

func (d *FakeDirectory) GetByUsername(_ context.Context, username string) (*principals.Record, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	id, ok := d.usernameIds[username]
	if !ok {
		return nil, principals.ErrNotFound
	}
	record := *d.records[id]
	return &record, nil
}

func (d *FakeDirectory) GetByID(_ context.Context, id int64) (*principals.Record, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	record, ok := d.records[id]
	if !ok {
		return nil, principals.ErrNotFound
	}
	result := *record
	return &result, nil
}

func (d *FakeDirectory) ReplaceCredential(_ context.Context, id int64, newHash string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	record, ok := d.records[id]
	if !ok {
		return principals.ErrNotFound
	}
	record.CredentialHash = newHash
	return nil
}

func (d *FakeDirectory) List(_ context.Context, offset, limit int) ([]*principals.Record, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	recordList := make([]*principals.Record, 0, len(d.records))
	for _, r := range d.records {
		record := *r
		recordList = append(recordList, &record)
	}

	sort.Slice(recordList, func(i, j int) bool {
		return recordList[i].ID < recordList[j].ID
	})

	if offset >= len(recordList) {
		return []*principals.Record{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(recordList) {
		end = len(recordList)
	}
	return recordList[offset:end], nil
}

// SetRole mutates a stored record's role directly. Test helper for verifying
// that role changes take effect on the next request without re-login.
func (d *FakeDirectory) SetRole(id int64, role principals.Role) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	record, ok := d.records[id]
	if !ok {
		return principals.ErrNotFound
	}
	record.Role = role
	return nil
}

package console

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxysched/console/internal/db"
)

type fakeJobStore struct {
	jobs    map[string]db.Job
	members map[string]bool
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]db.Job{}, members: map[string]bool{}}
}

func (f *fakeJobStore) addJob(jobID int64, master string, groupID int64) {
	f.jobs[fmt.Sprintf("%d@%s", jobID, master)] = db.Job{ID: jobID, GroupID: groupID}
}

func (f *fakeJobStore) addMember(user string, groupID int64) {
	f.members[fmt.Sprintf("%s/%d", user, groupID)] = true
}

func (f *fakeJobStore) GetJob(ctx context.Context, jobID int64, master string) (db.Job, error) {
	job, ok := f.jobs[fmt.Sprintf("%d@%s", jobID, master)]
	if !ok {
		return db.Job{}, db.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobStore) IsGroupMember(ctx context.Context, user string, groupID int64) (bool, error) {
	return f.members[fmt.Sprintf("%s/%d", user, groupID)], nil
}

func TestAuthorizeGrantsMember(t *testing.T) {
	store := newFakeJobStore()
	store.addJob(42, "master-a:7810", 7)
	store.addMember("alice", 7)
	gate := NewPermissionGate(store)

	job, err := gate.Authorize(context.Background(), "alice", 42, "master-a:7810", "kill")

	require.NoError(t, err)
	assert.Equal(t, int64(42), job.ID)
	assert.Equal(t, int64(7), job.GroupID)
}

func TestAuthorizeDeniesNonMember(t *testing.T) {
	store := newFakeJobStore()
	store.addJob(42, "master-a:7810", 7)
	gate := NewPermissionGate(store)

	_, err := gate.Authorize(context.Background(), "mallory", 42, "master-a:7810", "kill")

	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "you have no permission to kill job 42", err.Error())
}

func TestAuthorizeDeniesUnknownJob(t *testing.T) {
	gate := NewPermissionGate(newFakeJobStore())

	_, err := gate.Authorize(context.Background(), "alice", 99, "master-a:7810", "update")

	var notFound *JobNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "job 99 does not exist in db", err.Error())
}

func TestAuthorizeScopesJobToMaster(t *testing.T) {
	// The same numeric id under a different master is a different job.
	store := newFakeJobStore()
	store.addJob(42, "master-a:7810", 7)
	store.addMember("alice", 7)
	gate := NewPermissionGate(store)

	_, err := gate.Authorize(context.Background(), "alice", 42, "master-b:7810", "kill")

	var notFound *JobNotFoundError
	require.ErrorAs(t, err, &notFound)
}

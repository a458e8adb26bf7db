package poller

import (
	"context"
	"sync"

	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
)

// mockJobClient is a scripted JobClient for tests. GetJobStatus consumes
// the configured replies in order and repeats the last one.
type mockJobClient struct {
	mu            sync.Mutex
	statusReplies []statusReply
	statusCalls   int
	stored        imagejob.StoredObject
	storeErr      error
	storeCalls    int
}

type statusReply struct {
	status imagejob.JobStatus
	err    error
}

func (m *mockJobClient) CreateJob(ctx context.Context, cred imagejob.Credential, prompt string) (imagejob.CreateJobResult, error) {
	return imagejob.CreateJobResult{ExternalTaskID: "ext-1"}, nil
}

func (m *mockJobClient) GetJobStatus(ctx context.Context, cred imagejob.Credential, externalTaskID string) (imagejob.JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.statusCalls
	if idx >= len(m.statusReplies) {
		idx = len(m.statusReplies) - 1
	}
	m.statusCalls++
	reply := m.statusReplies[idx]
	return reply.status, reply.err
}

func (m *mockJobClient) StoreResult(ctx context.Context, cred imagejob.Credential, url string) (imagejob.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.storeCalls++
	if m.storeErr != nil {
		return imagejob.StoredObject{}, m.storeErr
	}
	return m.stored, nil
}

func (m *mockJobClient) statusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

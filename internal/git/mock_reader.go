package git

import "context"

// MockHistoryReader serves predefined change sets in place of a repository,
// so a series can be ingested without Git.
type MockHistoryReader struct {
	ChangeSets []CommitChangeSet
	Err        error
	Calls      int
}

// NewMockHistoryReader creates a reader returning changeSets, or err when
// it is non-nil.
func NewMockHistoryReader(changeSets []CommitChangeSet, err error) *MockHistoryReader {
	return &MockHistoryReader{ChangeSets: changeSets, Err: err}
}

// ReadChanges returns the configured change sets. A canceled context wins
// over the configured result, as with HistoryReader.
func (m *MockHistoryReader) ReadChanges(ctx context.Context) ([]CommitChangeSet, error) {
	m.Calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ChangeSets, nil
}

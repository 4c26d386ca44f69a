package indexsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

func newMemJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_PutAndPending(t *testing.T) {
	j := newMemJournal(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Put([]*Task{
		{Kind: domain.KindEbook, ID: "ebook-1", Op: store.OpUpsert, Version: 1, At: at, Seq: 1},
		{Kind: domain.KindAuthor, ID: "author-1", Op: store.OpDelete, Version: 2, At: at, Seq: 2},
	}))
	// Same document again replaces the entry.
	require.NoError(t, j.Put([]*Task{
		{Kind: domain.KindEbook, ID: "ebook-1", Op: store.OpUpsert, Version: 2, At: at, Seq: 3},
	}))

	tasks, err := j.Pending()
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byID := map[string]*Task{}
	for _, task := range tasks {
		byID[task.ID] = task
	}
	assert.Equal(t, int64(2), byID["ebook-1"].Version)
	assert.Equal(t, uint64(3), byID["ebook-1"].Seq)
	assert.Equal(t, store.OpDelete, byID["author-1"].Op)
	assert.True(t, at.Equal(byID["author-1"].At))
}

func TestJournal_AckKeepsNewerEntry(t *testing.T) {
	j := newMemJournal(t)

	old := &Task{Kind: domain.KindEbook, ID: "ebook-1", Op: store.OpUpsert, Version: 1, Seq: 10}
	require.NoError(t, j.Put([]*Task{old}))
	require.NoError(t, j.Put([]*Task{{Kind: domain.KindEbook, ID: "ebook-1", Op: store.OpUpsert, Version: 2, Seq: 11}}))

	require.NoError(t, j.Ack(old))
	n, err := j.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "entry written after the acked task survives")

	require.NoError(t, j.Ack(&Task{Kind: domain.KindEbook, ID: "ebook-1", Seq: 11}))
	n, err = j.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Acking a missing entry is a no-op.
	require.NoError(t, j.Ack(old))
}

func TestJournal_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	j, err := OpenJournal(dir, nil)
	require.NoError(t, err)
	require.NoError(t, j.Put([]*Task{{Kind: domain.KindSeries, ID: "series-1", Op: store.OpUpsert, Version: 1, Seq: 1}}))
	require.NoError(t, j.Close())

	j, err = OpenJournal(dir, nil)
	require.NoError(t, err)
	defer j.Close()

	tasks, err := j.Pending()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "series-1", tasks[0].ID)
}

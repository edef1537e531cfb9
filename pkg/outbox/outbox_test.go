package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func insertEvent(t *testing.T, db *gorm.DB, created time.Time, attempts int) models.OutboxEvent {
	t.Helper()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     created,
		AttemptCount:  attempts,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestRepositoryInsertRequiresTx(t *testing.T) {
	repo := NewRepository(setupOutboxTestDB(t))
	require.Error(t, repo.Insert(nil, models.OutboxEvent{}))
}

func TestRepositoryFetchUnpublished(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	insertEvent(t, db, now.Add(-3*time.Hour), 3)
	insertEvent(t, db, now.Add(-2*time.Hour), 3)
	fresh := insertEvent(t, db, now.Add(-time.Hour), 0)
	newest := insertEvent(t, db, now, 1)

	// Exhausted rows ahead of the fresh ones must not occupy the batch.
	rows, err := repo.FetchUnpublished(2, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, fresh.ID, rows[0].ID)
	assert.Equal(t, newest.ID, rows[1].ID)

	require.NoError(t, repo.MarkPublished(fresh.ID))
	rows, err = repo.FetchUnpublished(2, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newest.ID, rows[0].ID)
}

func TestRepositoryMarkFailedIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	event := insertEvent(t, db, time.Now().UTC(), 2)
	require.NoError(t, repo.MarkFailed(event.ID, errors.New("topic unavailable")))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 3, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "topic unavailable", *stored.LastError)

	// The third failure crosses the limit; the row stops being fetched.
	rows, err := repo.FetchUnpublished(10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"teachassist/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.TranscriptionJob{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	user := &model.User{Username: "ada", Email: "ada@example.edu", DisplayName: "Ada", PasswordHash: "x"}
	require.NoError(t, repo.Create(user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByUsername("ada")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.DisplayName)

	got, err = repo.GetByEmail("ada@example.edu")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	got, err = repo.GetByID(user.ID + 100)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.Create(&model.User{Username: "ada", Email: "other@example.edu", PasswordHash: "y"})
	assert.Error(t, err, "username is unique")

	ok, err := repo.UpdateDisplayName(user.ID, "Prof. Lovelace")
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Prof. Lovelace", got.DisplayName)

	ok, err = repo.UpdateDisplayName(user.ID+100, "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranscriptionJobRepository(t *testing.T) {
	repo := NewTranscriptionJobRepository(openTestDB(t))

	newJob := func(name, video, state string) *model.TranscriptionJob {
		job := &model.TranscriptionJob{
			JobName:  name,
			Subject:  "Math",
			Chapter:  "Algebra",
			Video:    video,
			MediaURI: "s3://bucket/" + video,
			State:    state,
		}
		require.NoError(t, repo.Create(job))
		return job
	}
	first := newJob("job-1", "week1.mp4", model.JobCompleted)
	second := newJob("job-2", "week1.mp4", model.JobSubmitted)
	other := newJob("job-3", "week2.mp4", model.JobRunning)

	latest, err := repo.LatestForVideo("Math", "Algebra", "week1.mp4")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	missing, err := repo.LatestForVideo("Math", "Algebra", "week9.mp4")
	require.NoError(t, err)
	assert.Nil(t, missing)

	pending, err := repo.ListPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, other.ID, pending[1].ID)

	second.State = model.JobFailed
	second.FailureReason = "bad media"
	second.Polls = 4
	require.NoError(t, repo.Update(second))

	got, err := repo.GetByID(second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.JobFailed, got.State)
	assert.Equal(t, "bad media", got.FailureReason)
	assert.Equal(t, 4, got.Polls)

	got, err = repo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.State)
}

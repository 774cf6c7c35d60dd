package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintRepositoryListTeacherConstraints(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "teacher_id", "day_of_week", "start_time", "end_time", "reason"}).
		AddRow("c-1", "term-1", "t-1", 1, "08:00", "10:00", "staff meeting")
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_constraints WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(rows)

	list, err := repo.ListTeacherConstraints(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "08:00", list[0].StartTime)
	require.NotNil(t, list[0].Reason)
	assert.Equal(t, "staff meeting", *list[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryListRequirements(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id, room_id, room_category, time_preference FROM subject_requirements")).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "room_id", "room_category", "time_preference"}).
			AddRow("physics", nil, "lab:physics", "ANY").
			AddRow("sport", nil, nil, "AFTERNOON"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT term_id, class_id, subject_id, hours FROM lesson_requirements WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"term_id", "class_id", "subject_id", "hours"}).AddRow("term-1", "class-11a", "math", 5))

	subjects, err := repo.ListSubjectRequirements(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Nil(t, subjects[0].RoomID)
	assert.Equal(t, "AFTERNOON", subjects[1].TimePreference)

	lessons, err := repo.ListLessonRequirements(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 5, lessons[0].Hours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityWordRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPriorityWordRepo(db)

	mock.ExpectQuery("SELECT word FROM priority_words WHERE").
		WithArgs("house", "en", "ru").
		WillReturnRows(sqlmock.NewRows([]string{"word"}).AddRow("дом").AddRow("жилище"))

	words, err := repo.List(context.Background(), testKey)

	assert.NoError(t, err)
	assert.Equal(t, []string{"дом", "жилище"}, words)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorityWordRepo_AddRemove(t *testing.T) {
	tests := []struct {
		name          string
		mockError     error
		expectedError bool
	}{
		{name: "success"},
		{name: "database error", mockError: fmt.Errorf("database error"), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewPriorityWordRepo(db)

			// Words are stored lowercased and trimmed
			add := mock.ExpectExec("INSERT INTO priority_words").WithArgs("house", "en", "ru", "дом")
			remove := mock.ExpectExec("DELETE FROM priority_words").WithArgs("house", "en", "ru", "дом")
			if tt.mockError != nil {
				add.WillReturnError(tt.mockError)
				remove.WillReturnError(tt.mockError)
			} else {
				add.WillReturnResult(sqlmock.NewResult(1, 1))
				remove.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			addErr := repo.Add(context.Background(), testKey, " Дом ")
			removeErr := repo.Remove(context.Background(), testKey, "ДОМ")

			if tt.expectedError {
				assert.Error(t, addErr)
				assert.Error(t, removeErr)
			} else {
				assert.NoError(t, addErr)
				assert.NoError(t, removeErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"wordflash/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryRowColumns = []string{"text", "source_lang", "target_lang", "translations", "created_at", "hidden_until", "hidden_forever"}

var testKey = domain.TranslationEntryKey{Text: "house", SourceLang: "en", TargetLang: "ru"}

const translationsJSON = `[{"part_of_speech":"noun","text":"house","variants":[{"text":"дом","synonyms":["здание"]}]}]`

func TestTranslationEntryRepo_GetCurrentEligible(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		mockRows      *sqlmock.Rows
		mockError     error
		expectedNil   bool
		expectedError bool
	}{
		{
			name: "entry found",
			mockRows: sqlmock.NewRows(entryRowColumns).
				AddRow("house", "en", "ru", []byte(translationsJSON), now, nil, false),
		},
		{
			name:        "nothing due",
			mockError:   sql.ErrNoRows,
			expectedNil: true,
		},
		{
			name:          "database error",
			mockError:     fmt.Errorf("connection refused"),
			expectedNil:   true,
			expectedError: true,
		},
		{
			name: "corrupt translations",
			mockRows: sqlmock.NewRows(entryRowColumns).
				AddRow("house", "en", "ru", []byte("{"), now, nil, false),
			expectedNil:   true,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewTranslationEntryRepo(db)

			expect := mock.ExpectQuery("SELECT (.+) FROM translation_entries e LEFT JOIN learning_info li").
				WithArgs(now, sqlmock.AnyArg())
			if tt.mockError != nil {
				expect.WillReturnError(tt.mockError)
			} else {
				expect.WillReturnRows(tt.mockRows)
			}

			entry, err := repo.GetCurrentEligible(context.Background(), now, []domain.TranslationEntryKey{
				{Text: "skipped", SourceLang: "en", TargetLang: "ru"},
			})

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.expectedNil {
				assert.Nil(t, entry)
			} else {
				require.NotNil(t, entry)
				assert.Equal(t, testKey, entry.Key)
				require.Len(t, entry.Translations, 1)
				assert.Equal(t, domain.PartOfSpeechNoun, entry.Translations[0].PartOfSpeech)
				assert.Equal(t, []string{"здание"}, entry.Translations[0].Variants[0].Synonyms)
				assert.Nil(t, entry.HiddenUntil)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTranslationEntryRepo_GetByKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTranslationEntryRepo(db)
	hidden := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM translation_entries e WHERE").
		WithArgs("house", "en", "ru").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("house", "en", "ru", []byte(translationsJSON), time.Now(), hidden, false))
	mock.ExpectQuery("SELECT (.+) FROM translation_entries e WHERE").
		WithArgs("missing", "en", "ru").
		WillReturnError(sql.ErrNoRows)

	entry, err := repo.GetByKey(context.Background(), testKey)
	require.NoError(t, err)
	require.NotNil(t, entry.HiddenUntil)
	assert.True(t, entry.HiddenUntil.Equal(hidden))

	entry, err = repo.GetByKey(context.Background(), domain.TranslationEntryKey{Text: "missing", SourceLang: "en", TargetLang: "ru"})
	assert.NoError(t, err)
	assert.Nil(t, entry)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationEntryRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTranslationEntryRepo(db)
	created := time.Now()

	mock.ExpectExec("INSERT INTO translation_entries").
		WithArgs("house", "en", "ru", sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), &domain.TranslationEntry{
		Key: testKey,
		Translations: []domain.PartOfSpeechTranslation{
			{PartOfSpeech: domain.PartOfSpeechNoun, Text: "house", Variants: []domain.TranslationVariant{{Text: "дом"}}},
		},
		CreatedAt: created,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslationEntryRepo_Hide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTranslationEntryRepo(db)
	until := time.Now().AddDate(0, 0, 7)

	mock.ExpectExec("UPDATE translation_entries SET hidden_until").
		WithArgs("house", "en", "ru", until).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE translation_entries SET hidden_forever = TRUE").
		WithArgs("house", "en", "ru").
		WillReturnError(fmt.Errorf("database error"))

	assert.NoError(t, repo.Hide(context.Background(), testKey, until))
	assert.Error(t, repo.HideForever(context.Background(), testKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

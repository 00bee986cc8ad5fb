package hoststore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
	"github.com/target/translation-queue/internal/testutil"
)

func mustSpec(t *testing.T, raw string) model.FieldSpec {
	t.Helper()
	spec, err := model.ParseFieldSpec(raw)
	require.NoError(t, err)
	return spec
}

func seed(t *testing.T, s *Store, recs ...Record) {
	t.Helper()
	for _, rec := range recs {
		require.NoError(t, s.Put(context.Background(), rec))
	}
}

func TestNew_RequiresDB(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestStore_ResolveAndPair(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		s, err := New(Options{DB: db, Now: testutil.FixedTimeFunc(testutil.TestTime())})
		require.NoError(t, err)
		ctx := context.Background()

		seed(t, s,
			Record{Entity: model.Entity{ID: "10", Type: model.ObjectTypePost, Lang: "en"}},
			Record{Entity: model.Entity{ID: "11", Type: model.ObjectTypePost, Lang: "fr", TranslationOf: "10"}},
			Record{Entity: model.Entity{ID: "12", Type: model.ObjectTypePost, Lang: "de", TranslationOf: "10"}},
		)

		src, err := s.ResolveEntity(ctx, model.ObjectTypePost, "10")
		require.NoError(t, err)
		assert.Equal(t, model.Entity{ID: "10", Type: model.ObjectTypePost, Lang: "en"}, *src)

		_, err = s.ResolveEntity(ctx, model.ObjectTypePost, "404")
		assert.True(t, apperrors.IsNotFound(err))

		fr, err := s.ResolvePairedEntity(ctx, src, "fr")
		require.NoError(t, err)
		assert.Equal(t, "11", fr.ID)
		assert.True(t, fr.IsTranslationOf(src))

		_, err = s.ResolvePairedEntity(ctx, src, "es")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestStore_LegacyFallback(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		s, err := New(Options{DB: db, LegacyFallback: true})
		require.NoError(t, err)
		ctx := context.Background()

		seed(t, s,
			Record{Entity: model.Entity{ID: "1", Type: model.ObjectTypeTerm, Lang: "en"}},
			Record{Entity: model.Entity{ID: "2", Type: model.ObjectTypeTerm, TranslationOf: "1"}},
			Record{Entity: model.Entity{ID: "3", Type: model.ObjectTypeTerm, Lang: "en"}},
			Record{Entity: model.Entity{ID: "4", Type: model.ObjectTypeTerm, Lang: "fr", TranslationOf: "3"}},
			Record{Entity: model.Entity{ID: "5", Type: model.ObjectTypeTerm, Lang: "de", TranslationOf: "3"}},
		)

		// Untagged single translation is used for any language.
		got, err := s.ResolvePairedEntity(ctx, &model.Entity{ID: "1", Type: model.ObjectTypeTerm}, "fr")
		require.NoError(t, err)
		assert.Equal(t, "2", got.ID)

		// Several candidates are ambiguous.
		_, err = s.ResolvePairedEntity(ctx, &model.Entity{ID: "3", Type: model.ObjectTypeTerm}, "es")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestStore_ReadWriteFields(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		s, err := New(Options{DB: db})
		require.NoError(t, err)
		ctx := context.Background()

		target := &model.Entity{ID: "21", Type: model.ObjectTypePost, Lang: "fr", TranslationOf: "20"}
		seed(t, s,
			Record{
				Entity: model.Entity{ID: "20", Type: model.ObjectTypePost, Lang: "en"},
				Fields: map[string]any{"post_content": "<p>Hello</p>"},
				Meta:   map[string]any{"blocks": []any{"a", "b"}},
				Taxonomies: map[string]map[string]any{
					"category": {"name": "News"},
				},
			},
			Record{Entity: *target},
		)

		src := &model.Entity{ID: "20", Type: model.ObjectTypePost}
		v, err := s.ReadField(ctx, src, mustSpec(t, "post_content"))
		require.NoError(t, err)
		assert.Equal(t, "<p>Hello</p>", v)

		v, err = s.ReadField(ctx, src, mustSpec(t, "meta:blocks"))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, v)

		v, err = s.ReadField(ctx, src, mustSpec(t, "category:name"))
		require.NoError(t, err)
		assert.Equal(t, "News", v)

		v, err = s.ReadField(ctx, target, mustSpec(t, "post_content"))
		require.NoError(t, err)
		assert.Nil(t, v, "unset fields read as nil")

		writes := map[string]any{
			"post_content":  "<p>Bonjour</p>",
			"meta:blocks":   []any{"x"},
			"category:name": "Actualités",
			"category:slug": "actualites",
		}
		for field, value := range writes {
			require.NoError(t, s.WriteField(ctx, core.WriteFieldParams{
				Entity: target, Field: mustSpec(t, field), Value: value,
			}), field)
		}
		for field, want := range writes {
			got, err := s.ReadField(ctx, target, mustSpec(t, field))
			require.NoError(t, err)
			assert.Equal(t, want, got, field)
		}

		err = s.WriteField(ctx, core.WriteFieldParams{
			Entity: &model.Entity{ID: "nope", Type: model.ObjectTypePost},
			Field:  mustSpec(t, "post_title"),
			Value:  "x",
		})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestStore_PutValidation(t *testing.T) {
	s := &Store{}
	err := s.Put(context.Background(), Record{Entity: model.Entity{ID: "1", Type: "page"}})
	assert.True(t, apperrors.IsValidation(err))

	err = s.Put(context.Background(), Record{Entity: model.Entity{Type: model.ObjectTypePost}})
	assert.True(t, apperrors.IsValidation(err))
}

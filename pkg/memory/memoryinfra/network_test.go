package memoryinfra_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/Abraxas-365/shohayok/pkg/memory/memoryinfra"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "shohayok_test"

func newStudent() kernel.UserID {
	return kernel.UserID("student_" + uuid.NewString())
}

// Runs against a real Redis when REDIS_TEST_ADDR is set (e.g. localhost:6379)
func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	repo := memoryinfra.NewRedisRepository(client, testPrefix)
	key := func(id kernel.UserID) string { return testPrefix + ":memory:" + id.String() }

	t.Run("missing key is not found", func(t *testing.T) {
		rec, err := repo.Get(ctx, newStudent())
		assert.Nil(t, rec)
		assert.True(t, memory.IsNotFound(err))
	})

	t.Run("empty snapshot is not missing", func(t *testing.T) {
		id := newStudent()
		defer client.Del(ctx, key(id))

		require.NoError(t, repo.Save(ctx, memory.NewRecord(id, memory.Snapshot{})))
		rec, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, rec.Data)
		assert.Empty(t, rec.Data)
	})

	t.Run("save then get", func(t *testing.T) {
		id := newStudent()
		defer client.Del(ctx, key(id))

		saved := memory.NewRecord(id, memory.Snapshot{"name": "রবিন", "grade": float64(5)})
		require.NoError(t, repo.Save(ctx, saved))

		rec, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.UserID)
		assert.Equal(t, "রবিন", rec.Data["name"])
		assert.Equal(t, float64(5), rec.Data["grade"])
		assert.WithinDuration(t, saved.UpdatedAt, rec.UpdatedAt, time.Millisecond)

		ttl, err := client.TTL(ctx, key(id)).Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	malformed := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"null data", `{"data": null}`},
		{"array data", `{"data": [1, 2]}`},
	}
	for _, tc := range malformed {
		t.Run("malformed "+tc.name, func(t *testing.T) {
			id := newStudent()
			defer client.Del(ctx, key(id))
			require.NoError(t, client.Set(ctx, key(id), tc.raw, 0).Err())

			rec, err := repo.Get(ctx, id)
			assert.Nil(t, rec)
			assert.True(t, errx.IsCode(err, memory.CodeMalformed))
			assert.True(t, memory.IsLookupError(err))
		})
	}
}

// Runs against a real Postgres when POSTGRES_TEST_DSN is set
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	schema, err := os.ReadFile("../../../migrations/001_user_memories.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	repo := memoryinfra.NewPostgresRepository(db)
	cleanup := func(id kernel.UserID) {
		_, _ = db.ExecContext(ctx, "DELETE FROM user_memories WHERE user_id = $1", id.String())
	}

	t.Run("missing row is not found", func(t *testing.T) {
		rec, err := repo.Get(ctx, newStudent())
		assert.Nil(t, rec)
		assert.True(t, memory.IsNotFound(err))
	})

	t.Run("empty snapshot is not missing", func(t *testing.T) {
		id := newStudent()
		defer cleanup(id)

		require.NoError(t, repo.Save(ctx, memory.NewRecord(id, memory.Snapshot{})))
		rec, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, rec.Data)
		assert.Empty(t, rec.Data)
	})

	t.Run("save replaces the document", func(t *testing.T) {
		id := newStudent()
		defer cleanup(id)

		require.NoError(t, repo.Save(ctx, memory.NewRecord(id, memory.Snapshot{"name": "রবিন"})))
		require.NoError(t, repo.Save(ctx, memory.NewRecord(id, memory.Snapshot{"name": "রাহুল"})))

		rec, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, memory.Snapshot{"name": "রাহুল"}, rec.Data)
	})
}

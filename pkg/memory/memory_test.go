package memory_test

import (
	"testing"

	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	base := memory.Snapshot{"name": "রবিন", "level": "beginner"}
	merged := base.Merge(memory.Snapshot{"level": "intermediate", "name": nil, "city": "ঢাকা"})

	assert.Equal(t, memory.Snapshot{"level": "intermediate", "city": "ঢাকা"}, merged)
	assert.Equal(t, "রবিন", base["name"], "merge must not mutate the receiver")
}

func TestEqual(t *testing.T) {
	a := memory.Snapshot{"name": "রবিন", "age": 12}
	b := memory.Snapshot{"age": 12, "name": "রবিন"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(memory.Snapshot{"name": "রবিন"}))
}

func TestNewRecordEmptySnapshot(t *testing.T) {
	rec := memory.NewRecord("u1", nil)
	require.NotNil(t, rec.Data)
	assert.Empty(t, rec.Data)
}

func TestDecode(t *testing.T) {
	data, err := memory.Decode("u1", []byte(`{"name":"রবিন"}`))
	require.NoError(t, err)
	assert.Equal(t, "রবিন", data["name"])

	empty, err := memory.Decode("u1", []byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, raw := range []string{`null`, `[1,2]`, `"text"`, `{broken`} {
		_, err := memory.Decode("u1", []byte(raw))
		assert.True(t, memory.IsLookupError(err), raw)
		assert.False(t, memory.IsNotFound(err), raw)
	}
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := memory.NewRecord("u1", memory.Snapshot{"name": "রবিন"})
	c := rec.Clone()
	c.Data["name"] = "other"

	assert.Equal(t, "রবিন", rec.Data["name"])
}

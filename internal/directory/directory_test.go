package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcrew/internal/models"
)

const rosterYAML = `
workers:
  - id: 693411047
    name: Баранов Антон
  - id: 987654321
    name: Петрова Мария
admins: [111, 222]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosterYAML), 0o600))

	dir, err := Load(path, []int64{222, 333})
	require.NoError(t, err)

	assert.Equal(t, []int64{111, 222, 333}, dir.Admins())
	assert.True(t, dir.IsAdmin(333))
	assert.False(t, dir.IsAdmin(693411047))

	name, ok := dir.Name(987654321)
	assert.True(t, ok)
	assert.Equal(t, "Петрова Мария", name)

	id, ok := dir.Lookup("Баранов Антон")
	assert.True(t, ok)
	assert.Equal(t, int64(693411047), id)

	workers := dir.Workers()
	require.Len(t, workers, 2)
	assert.Equal(t, "Баранов Антон", workers[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]models.Worker{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}, nil)
	assert.Error(t, err)

	_, err = New([]models.Worker{{ID: 1, Name: "A"}, {ID: 2, Name: "A"}}, nil)
	assert.Error(t, err)

	_, err = New([]models.Worker{{ID: 0, Name: "A"}}, nil)
	assert.Error(t, err)
}

func TestWorkersReturnsCopy(t *testing.T) {
	dir, err := New([]models.Worker{{ID: 1, Name: "A"}}, nil)
	require.NoError(t, err)

	ws := dir.Workers()
	ws[0].Name = "changed"
	name, _ := dir.Name(1)
	assert.Equal(t, "A", name)
	assert.Equal(t, "A", dir.Workers()[0].Name)
}

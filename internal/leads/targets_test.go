package leads

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTargets(t *testing.T) {
	table := DefaultTargets()
	require.Equal(t, 18, table.Len())
	assert.Equal(t, "C101", table.Codes()[0])

	desc, ok := table.Describe("g463")
	require.True(t, ok)
	assert.Equal(t, "Comercio al por mayor de productos alimenticios", desc)

	_, ok = table.Describe("Z999")
	assert.False(t, ok)
}

func TestTargetTableEntriesAreCopies(t *testing.T) {
	table := DefaultTargets()
	entries := table.Entries()
	entries[0].Code = "XXXX"
	codes := table.Codes()
	codes[1] = "YYYY"

	assert.Equal(t, "C101", table.Entries()[0].Code)
	assert.Equal(t, "C102", table.Codes()[1])
}

func TestTargetTableMatch(t *testing.T) {
	table := DefaultTargets()
	assert.True(t, table.Match("C1011"))
	assert.True(t, table.Match("C101"))
	assert.True(t, table.Match("a0121"))
	assert.False(t, table.Match("C10"))
	assert.False(t, table.Match(" C1011"))
	assert.False(t, table.Match(""))
	assert.False(t, TargetTable{}.Match("C1011"))
}

func TestNewTargetTableValidation(t *testing.T) {
	_, err := NewTargetTable(nil)
	assert.True(t, errors.Is(err, ErrEmptyTargets))

	_, err = NewTargetTable([]TargetCode{{Code: " "}})
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	_, err = NewTargetTable([]TargetCode{{Code: "C10111"}})
	assert.True(t, errors.Is(err, ErrInvalidTarget))

	_, err = NewTargetTable([]TargetCode{{Code: "c101"}, {Code: "C101 "}})
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestLoadTargetsTOML(t *testing.T) {
	src := `
[[target]]
code = "c22"
description = " Fabricación de productos de caucho y plástico "

[[target]]
code = "H52"
description = "Almacenamiento"
`
	table, err := LoadTargetsTOML(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"C22", "H52"}, table.Codes())
	assert.Equal(t, "Fabricación de productos de caucho y plástico", table.Entries()[0].Description)
	assert.True(t, table.Match("C2221"))
	assert.False(t, table.Match("C1011"))
}

func TestLoadTargetsTOMLErrors(t *testing.T) {
	_, err := LoadTargetsTOML(strings.NewReader("[[target]\ncode ="))
	require.Error(t, err)

	_, err = LoadTargetsTOML(strings.NewReader("title = \"none\"\n"))
	assert.True(t, errors.Is(err, ErrEmptyTargets))
}

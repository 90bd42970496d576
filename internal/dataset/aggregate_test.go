package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func aggregateFixture() *Dataset {
	return FromRecords([]string{"Center_ID", "Pincode"}, [][]string{
		{"ASK-BR-001", "800001"},
		{"ASK-BR-001", "800002"},
		{"ASK-BR-002", "800002"},
		{"ASK-BR-001", "800003"},
		{"", "800003"},
		{"ASK-BR-002", "800001"},
	})
}

func TestModalValue(t *testing.T) {
	ds := aggregateFixture()
	all := []int{0, 1, 2, 3, 4, 5}

	assert.Equal(t, "ASK-BR-001", ModalValue(ds, "Center_ID", all))
	// Tie between the three pincodes resolves to the smallest value.
	assert.Equal(t, "800001", ModalValue(ds, "Pincode", all))
	// Blank cells never win, even when they dominate the selection.
	assert.Equal(t, "ASK-BR-002", ModalValue(ds, "Center_ID", []int{2, 4}))
	assert.Equal(t, "", ModalValue(ds, "Center_ID", nil))
	assert.Equal(t, "", ModalValue(ds, "Missing", all))
}

func TestTopValues(t *testing.T) {
	ds := aggregateFixture()
	all := []int{0, 1, 2, 3, 4, 5}

	assert.Equal(t, []string{"800001", "800002", "800003"}, TopValues(ds, "Pincode", all, 5))
	assert.Equal(t, []string{"800001", "800002"}, TopValues(ds, "Pincode", all, 2))
	// The blank cell in row 4 is excluded from the ranking.
	assert.Equal(t, []string{"ASK-BR-001", "ASK-BR-002"}, TopValues(ds, "Center_ID", all, 5))
	assert.Nil(t, TopValues(ds, "Missing", all, 5))
	assert.Empty(t, TopValues(ds, "Pincode", all[:0], 5))
}

package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidID(t *testing.T) {
	valid := []string{
		"64b7f0c2a1e3d4f5a6b7c8d9",
		"000000000000000000000000",
		"64B7F0C2A1E3D4F5A6B7C8D9",
	}
	for _, id := range valid {
		assert.True(t, IsValidID(id), id)
	}

	invalid := []string{
		"",
		"not-an-id",
		"64b7f0c2a1e3d4f5a6b7c8d",   // 23 chars
		"64b7f0c2a1e3d4f5a6b7c8d9a", // 25 chars
		"64b7f0c2a1e3d4f5a6b7c8zz",
		"aaaaaaaaaaaa", // 12 bytes, not hex
	}
	for _, id := range invalid {
		assert.False(t, IsValidID(id), id)
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "64b7f0c2a1e3d4f5a6b7c8d9", NormalizeID("64B7F0C2A1E3D4F5A6B7C8D9"))
	assert.Equal(t, "64b7f0c2a1e3d4f5a6b7c8d9", NormalizeID("64b7F0c2A1e3d4f5a6b7c8D9"))
	assert.Equal(t, "64b7f0c2a1e3d4f5a6b7c8d9", NormalizeID("64b7f0c2a1e3d4f5a6b7c8d9"))
}

func TestApplyKeepsID(t *testing.T) {
	tx := &Transaction{ID: "64b7f0c2a1e3d4f5a6b7c8d9", Amount: 1, Description: "old"}
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	tx.Apply(Fields{Amount: 2, Date: date, Description: "new"})

	assert.Equal(t, "64b7f0c2a1e3d4f5a6b7c8d9", tx.ID)
	assert.Equal(t, 2.0, tx.Amount)
	assert.Equal(t, date, tx.Date)
	assert.Equal(t, "new", tx.Description)
}

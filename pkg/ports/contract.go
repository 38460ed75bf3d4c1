package ports

import (
	"context"
	"testing"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStorageContract runs a suite of tests to verify that a Storage implementation
// adheres to the defined interface contract.
func RunStorageContract(t *testing.T, storage Storage) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Save
		data := []byte("#PDF CG0001\nNamed Insured: Acme Roofing\n")
		file, err := storage.Save(ctx, "CG0001_contract.pdf", domain.FormatPDF, data)
		require.NoError(t, err, "Save should not return error")
		assert.Equal(t, domain.FormatPDF, file.Format)
		assert.Equal(t, "CG0001_contract.pdf", file.FileName)
		require.NotEmpty(t, file.Path)

		// 2. Load by the returned path
		loaded, err := storage.Load(ctx, file.Path)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, data, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first, err := storage.Save(ctx, "CG0002_contract.docx", domain.FormatDOCX, []byte("v1"))
		require.NoError(t, err)
		second, err := storage.Save(ctx, "CG0002_contract.docx", domain.FormatDOCX, []byte("v2"))
		require.NoError(t, err)
		assert.Equal(t, first.Path, second.Path)

		loaded, err := storage.Load(ctx, second.Path)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := storage.Load(ctx, "missing-contract-file.pdf")
		assert.ErrorIs(t, err, domain.ErrFileNotFound)
	})
}

// RunReferenceSourceContract verifies a ReferenceSource returns the expected data.
func RunReferenceSourceContract(t *testing.T, src ReferenceSource, want *domain.ReferenceData) {
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		got, err := src.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Carriers, got.Carriers)
		assert.Equal(t, want.States, got.States)
	})

	t.Run("Load Twice", func(t *testing.T) {
		a, err := src.Load(ctx)
		require.NoError(t, err)
		b, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

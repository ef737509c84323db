package oci

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content"
	ocilayout "oras.land/oras-go/v2/content/oci"

	cerrors "github.com/velarno/copper/pkg/errors"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestMediaTypeFor(t *testing.T) {
	tests := map[string]string{
		"era5-1.grib": MediaTypeGRIB,
		"era5-1.GRB2": MediaTypeGRIB,
		"land.nc":     MediaTypeNetCDF,
		"bundle.zip":  MediaTypeZip,
		"data.bin":    MediaTypeData,
		"noext":       MediaTypeData,
	}
	for path, want := range tests {
		assert.Equal(t, want, MediaTypeFor(path), path)
	}
}

func TestPush_LocalLayout(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	files := []string{
		writeFile(t, src, "era5-a.grib", "GRIB first"),
		writeFile(t, src, "era5-b.nc", "CDF second"),
	}
	layout := filepath.Join(t.TempDir(), "layout")

	res, err := Push(ctx, PushOptions{
		Files:  files,
		Target: &Reference{LocalPath: layout, Tag: "era5"},
		Annotations: map[string]string{
			AnnotationDataset:  "reanalysis-era5-single-levels",
			AnnotationTemplate: "era5",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Digest)
	assert.Equal(t, layout, res.Reference)
	assert.Equal(t, 2, res.Layers)
	assert.Equal(t, int64(len("GRIB first")+len("CDF second")), res.Size)

	store, err := ocilayout.New(layout)
	require.NoError(t, err)
	desc, err := store.Resolve(ctx, "era5")
	require.NoError(t, err)
	assert.Equal(t, res.Digest, desc.Digest.String())

	data, err := content.FetchAll(ctx, store, desc)
	require.NoError(t, err)
	var manifest ociv1.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))

	assert.Equal(t, ArtifactType, manifest.ArtifactType)
	assert.Equal(t, "era5", manifest.Annotations[AnnotationTemplate])
	assert.Equal(t, "reanalysis-era5-single-levels", manifest.Annotations[AnnotationDataset])
	require.Len(t, manifest.Layers, 2)
	assert.Equal(t, MediaTypeGRIB, manifest.Layers[0].MediaType)
	assert.Equal(t, "era5-a.grib", manifest.Layers[0].Annotations[ociv1.AnnotationTitle])
	assert.Equal(t, MediaTypeNetCDF, manifest.Layers[1].MediaType)

	blob, err := content.FetchAll(ctx, store, manifest.Layers[1])
	require.NoError(t, err)
	assert.Equal(t, "CDF second", string(blob))
}

func TestPush_Validation(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.grib", "x")
	other := t.TempDir()
	dup := writeFile(t, other, "a.grib", "y")

	tests := []struct {
		name string
		opts PushOptions
	}{
		{"no target", PushOptions{Files: []string{a}}},
		{"no tag", PushOptions{Files: []string{a}, Target: &Reference{LocalPath: t.TempDir()}}},
		{"no files", PushOptions{Target: &Reference{LocalPath: t.TempDir(), Tag: "v1"}}},
		{"duplicate names", PushOptions{Files: []string{a, dup}, Target: &Reference{LocalPath: t.TempDir(), Tag: "v1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Push(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
		})
	}
}

func TestPush_MissingFile(t *testing.T) {
	_, err := Push(context.Background(), PushOptions{
		Files:  []string{filepath.Join(t.TempDir(), "missing.grib")},
		Target: &Reference{LocalPath: t.TempDir(), Tag: "v1"},
	})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInternal, cerrors.CodeOf(err))
}

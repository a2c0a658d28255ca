package buildtool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawgym/pipeline/internal/models"
)

func TestDetect_AntTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build.xml"), []byte("<project/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project/>"), 0o644))

	res, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectAnt, res.Kind)
}

func TestDetect_MavenWhenNoAnt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project/>"), 0o644))

	res, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectMaven, res.Kind)
}

func TestDetect_SingleFileWhenExactlyOneJavaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Solution.java")
	require.NoError(t, os.WriteFile(path, []byte("class Solution {}"), 0o644))

	res, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectSingleFile, res.Kind)
	assert.Equal(t, []string{path}, res.EntryFiles)
}

func TestDetect_UndeterminedWhenMultipleJavaFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.java"), []byte("class A {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.java"), []byte("class B {}"), 0o644))

	_, err := Detect(dir)
	assert.ErrorIs(t, err, ErrUndetermined)
}

func TestDetect_NoSourcesWhenTreeIsEmpty(t *testing.T) {
	dir := t.TempDir()
	_, err := Detect(dir)
	assert.ErrorIs(t, err, ErrNoSources)
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granular-oss/geostream"
)

func writeGJZ(t *testing.T, dir, name string, attrs map[string]interface{}, features ...*geostream.Feature) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := geostream.NewWriter(f, attrs, nil)
	require.NoError(t, err)
	for _, feat := range features {
		require.NoError(t, w.WriteFeature(feat))
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func readCollection(t *testing.T, path string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func testFeatures() []*geostream.Feature {
	return []*geostream.Feature{
		geostream.NewFeature(orb.Point{-115.81, 37.24}, geojson.Properties{"name": "a", "keep": "yes"}),
		geostream.NewFeature(orb.Point{8.919, 44.4074}, geojson.Properties{"name": "b", "keep": "no"}),
		geostream.NewFeature(orb.Point{2.3522, 48.8566}, geojson.Properties{"name": "c", "keep": "yes"}),
	}
}

func TestUnpack_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", map[string]interface{}{"unit": "something"}, testFeatures()...)

	_, _, err := runCommand(t, input)
	require.NoError(t, err)

	doc := readCollection(t, filepath.Join(dir, "data.json"))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Len(t, doc["features"], 3)

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok, "header attributes should map to collection properties")
	assert.Equal(t, "something", props["unit"])

	crs, ok := doc["crs"].(map[string]interface{})
	require.True(t, ok)
	crsProps := crs["properties"].(map[string]interface{})
	assert.Equal(t, "EPSG:4326", crsProps["name"])
}

func TestUnpack_SelectFilter(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()...)

	_, _, err := runCommand(t, "--select", `{"keep":"yes"}`, input)
	require.NoError(t, err)

	doc := readCollection(t, filepath.Join(dir, "data.json"))
	assert.Len(t, doc["features"], 2)
}

func TestUnpack_InvalidSelectAborts(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()...)

	_, errOut, err := runCommand(t, "--select", "{not json", input)
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid select text")
	assert.NoFileExists(t, filepath.Join(dir, "data.json"))
}

func TestUnpack_ReverseOrder(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()...)

	_, _, err := runCommand(t, "--reverse", input)
	require.NoError(t, err)

	doc := readCollection(t, filepath.Join(dir, "data.json"))
	features := doc["features"].([]interface{})
	require.Len(t, features, 3)
	first := features[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, "c", first["name"])
}

func TestUnpack_SkipsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csv, []byte("a,b\n"), 0o644))

	out, _, err := runCommand(t, csv)
	require.NoError(t, err, "wrong-extension inputs are skipped, not fatal")
	assert.Contains(t, out, "Skipped")
}

func TestUnpack_SkipsUnreadableStream(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.gjz")
	require.NoError(t, os.WriteFile(junk, []byte("not a geostream"), 0o644))

	out, _, err := runCommand(t, junk)
	require.NoError(t, err)
	assert.Contains(t, out, "failed to open")
}

func TestUnpack_NamedOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()...)
	output := filepath.Join(dir, "renamed.json")

	_, _, err := runCommand(t, "--out", output, input)
	require.NoError(t, err)
	doc := readCollection(t, output)
	assert.Len(t, doc["features"], 3)
}

func TestUnpack_NamedOutputFileRejectsMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeGJZ(t, dir, "a.gjz", nil, testFeatures()...)
	b := writeGJZ(t, dir, "b.gjz", nil, testFeatures()...)

	_, errOut, err := runCommand(t, "--out", filepath.Join(dir, "out.json"), a, b)
	require.Error(t, err)
	assert.Contains(t, errOut, "must be a directory")
}

func TestUnpack_OutputDirectoryCreated(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()...)
	outDir := filepath.Join(dir, "out", "nested")

	_, _, err := runCommand(t, "--out", outDir, input)
	require.NoError(t, err)
	doc := readCollection(t, filepath.Join(outDir, "data.json"))
	assert.Len(t, doc["features"], 3)
}

func TestUnpack_GlobAndVerbose(t *testing.T) {
	dir := t.TempDir()
	writeGJZ(t, dir, "a.gjz", nil, testFeatures()...)
	writeGJZ(t, dir, "b.gjz", nil, testFeatures()[:1]...)

	out, _, err := runCommand(t, "--verbose", filepath.Join(dir, "*.gjz"))
	require.NoError(t, err)
	assert.Contains(t, out, "Unpacking:")
	assert.Contains(t, out, "unpacked 3 Features")
	assert.Contains(t, out, "unpacked 1 Features")
	assert.FileExists(t, filepath.Join(dir, "a.json"))
	assert.FileExists(t, filepath.Join(dir, "b.json"))
}

func TestUnpack_Pretty(t *testing.T) {
	dir := t.TempDir()
	input := writeGJZ(t, dir, "data.gjz", nil, testFeatures()[:1]...)

	_, _, err := runCommand(t, "--pretty", input)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    ")
}

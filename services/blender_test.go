package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaboard/models"
)

// fakeRunner records invocations and snapshots the generated script so
// tests can inspect it even though the integration deletes it.
type fakeRunner struct {
	runErr   error
	runCalls [][]string
	starts   [][]string
	script   string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.runCalls = append(f.runCalls, append([]string{name}, args...))
	if len(args) == 3 && args[0] == "--background" && args[1] == "--python" {
		if data, err := os.ReadFile(args[2]); err == nil {
			f.script = string(data)
		}
	}
	return f.runErr
}

func (f *fakeRunner) Start(name string, args ...string) error {
	f.starts = append(f.starts, append([]string{name}, args...))
	return nil
}

func testIntegration(runner commandRunner) *BlenderIntegration {
	return &BlenderIntegration{exePath: "/opt/blender/blender", runner: runner}
}

func TestNewBlenderIntegrationMissingExecutable(t *testing.T) {
	b, err := NewBlenderIntegration(filepath.Join(t.TempDir(), "no_such_blender"))
	require.Error(t, err)
	assert.Nil(t, b)
}

func TestNewBlenderIntegrationExplicitPath(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "blender")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	b, err := NewBlenderIntegration(exe)
	require.NoError(t, err)
	assert.Equal(t, exe, b.ExecutablePath())
}

func TestImportModel(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	model := filepath.Join(t.TempDir(), "thing.glb")
	require.NoError(t, os.WriteFile(model, []byte("x"), 0644))
	project := filepath.Join(t.TempDir(), "out.blend")

	got, err := b.ImportModel(context.Background(), model, project)
	require.NoError(t, err)
	assert.Equal(t, project, got)

	require.Len(t, fr.runCalls, 1)
	assert.Equal(t, "/opt/blender/blender", fr.runCalls[0][0])
	assert.Equal(t, "--background", fr.runCalls[0][1])
	assert.Equal(t, "--python", fr.runCalls[0][2])

	assert.Contains(t, fr.script, "bpy.ops.import_scene.gltf")
	assert.Contains(t, fr.script, "save_as_mainfile")

	// Temp script is removed after the run.
	_, statErr := os.Stat(fr.runCalls[0][3])
	assert.True(t, os.IsNotExist(statErr))
}

func TestImportModelMissingInput(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	_, err := b.ImportModel(context.Background(), "/nowhere/thing.glb", "")
	require.Error(t, err)
	assert.Empty(t, fr.runCalls, "no process may be spawned for a missing input")
}

func TestImportModelUnsupportedExtension(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	model := filepath.Join(t.TempDir(), "thing.xyz")
	require.NoError(t, os.WriteFile(model, []byte("x"), 0644))

	got, err := b.ImportModel(context.Background(), model, filepath.Join(t.TempDir(), "out.blend"))
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// The import is skipped but the project is still created and saved.
	assert.NotContains(t, fr.script, "import_scene")
	assert.Contains(t, fr.script, "save_as_mainfile")
}

func TestImportModelProcessFailure(t *testing.T) {
	fr := &fakeRunner{runErr: errors.New("exit status 1")}
	b := testIntegration(fr)

	model := filepath.Join(t.TempDir(), "thing.obj")
	require.NoError(t, os.WriteFile(model, []byte("x"), 0644))

	_, err := b.ImportModel(context.Background(), model, "")
	require.Error(t, err)

	// Script cleanup happens on the failure path too.
	_, statErr := os.Stat(fr.runCalls[0][3])
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateSceneWithoutModels(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	s := models.NewSession("3D robot", "Video Game", "Sci-Fi", "", nil)
	out := filepath.Join(t.TempDir(), "scene.blend")

	got, err := b.CreateScene(context.Background(), s, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	// Labels, lighting and camera are present even with no models.
	assert.Contains(t, fr.script, `"Concept: " + "3D robot"`)
	assert.Contains(t, fr.script, `"Project Type: " + "Video Game"`)
	assert.Contains(t, fr.script, `"Genre: " + "Sci-Fi"`)
	assert.Contains(t, fr.script, "Key Light")
	assert.Contains(t, fr.script, "Fill Light")
	assert.Contains(t, fr.script, "Rim Light")
	assert.Contains(t, fr.script, "Ideation Camera")
	assert.NotContains(t, fr.script, "import_scene")
}

func TestCreateSceneWithBothModels(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	dir := t.TempDir()
	sketchModel := filepath.Join(dir, "model_from_sketch_rendered_robot.png.glb")
	textModel := filepath.Join(dir, "model_from_text_a_tall_robot.glb")
	require.NoError(t, os.WriteFile(sketchModel, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(textModel, []byte("x"), 0644))

	s := models.NewSession("3D robot", "Video Game", "Sci-Fi", "", nil)
	s.Sketch3DPath = &sketchModel
	s.Text3DPath = &textModel

	_, err := b.CreateScene(context.Background(), s, filepath.Join(dir, "scene.blend"))
	require.NoError(t, err)

	assert.Contains(t, fr.script, `"From Sketch"`)
	assert.Contains(t, fr.script, `"From Description"`)
	assert.Contains(t, fr.script, "(-3, -3, 0)")
	assert.Contains(t, fr.script, "(3, -3, 0)")
}

func TestCreateSceneSkipsMissingModel(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	gone := "/nowhere/model.glb"
	s := models.NewSession("x", "", "", "", nil)
	s.Sketch3DPath = &gone

	_, err := b.CreateScene(context.Background(), s, filepath.Join(t.TempDir(), "scene.blend"))
	require.NoError(t, err)
	assert.NotContains(t, fr.script, "import_scene")
}

func TestLaunchWithScene(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	blend := filepath.Join(t.TempDir(), "scene.blend")
	require.NoError(t, os.WriteFile(blend, []byte("x"), 0644))

	require.NoError(t, b.LaunchWithScene(blend))
	require.Len(t, fr.starts, 1)
	assert.Equal(t, []string{"/opt/blender/blender", blend}, fr.starts[0])
	assert.Empty(t, fr.runCalls, "launch must not wait on a headless run")
}

func TestLaunchWithSceneMissingFile(t *testing.T) {
	fr := &fakeRunner{}
	b := testIntegration(fr)

	require.Error(t, b.LaunchWithScene("/nowhere/scene.blend"))
	assert.Empty(t, fr.starts)
}

func TestPyString(t *testing.T) {
	assert.Equal(t, `"plain"`, pyString("plain"))
	assert.Equal(t, `"with \"quotes\""`, pyString(`with "quotes"`))
}

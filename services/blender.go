package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"ideaboard/models"
)

// commandRunner abstracts process execution so tests can fake Blender.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Start(name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (execRunner) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// BlenderIntegration drives the external Blender application through
// generated automation scripts. The script text is a private wire format:
// written to a temp file immediately before the run and removed right
// after, on success and failure alike.
type BlenderIntegration struct {
	exePath string
	runner  commandRunner
}

// NewBlenderIntegration resolves the executable up front. No executable
// means no exporter: construction fails and no script is ever generated.
func NewBlenderIntegration(exePath string) (*BlenderIntegration, error) {
	if exePath == "" {
		exePath = findBlenderExecutable()
	} else if _, err := os.Stat(exePath); err != nil {
		return nil, fmt.Errorf("blender executable not found at %s", exePath)
	}
	if exePath == "" {
		return nil, fmt.Errorf("could not find Blender executable; set BLENDER_PATH")
	}
	return &BlenderIntegration{exePath: exePath, runner: execRunner{}}, nil
}

// ExecutablePath reports the resolved Blender binary.
func (b *BlenderIntegration) ExecutablePath() string {
	return b.exePath
}

// findBlenderExecutable checks PATH and well-known install locations.
func findBlenderExecutable() string {
	if p, err := exec.LookPath("blender"); err == nil {
		return p
	}
	locations := []string{
		`C:\Program Files\Blender Foundation\Blender 4.1\blender.exe`,
		`C:\Program Files\Blender Foundation\Blender 4.0\blender.exe`,
		`C:\Program Files\Blender Foundation\Blender 3.6\blender.exe`,
		"/Applications/Blender.app/Contents/MacOS/Blender",
		"/usr/bin/blender",
		"/usr/local/bin/blender",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// importCall maps a model file extension to the bpy import operator call,
// already quoted for embedding. ok is false for unsupported formats.
func importCall(modelPath string) (string, bool) {
	quoted := pyString(modelPath)
	switch strings.ToLower(filepath.Ext(modelPath)) {
	case ".obj":
		return "bpy.ops.import_scene.obj(filepath=" + quoted + ")", true
	case ".fbx":
		return "bpy.ops.import_scene.fbx(filepath=" + quoted + ")", true
	case ".glb", ".gltf":
		return "bpy.ops.import_scene.gltf(filepath=" + quoted + ")", true
	case ".stl":
		return "bpy.ops.import_mesh.stl(filepath=" + quoted + ")", true
	case ".ply":
		return "bpy.ops.import_mesh.ply(filepath=" + quoted + ")", true
	case ".dae":
		return "bpy.ops.wm.collada_import(filepath=" + quoted + ")", true
	default:
		return "", false
	}
}

// pyString renders s as a Python double-quoted string literal.
func pyString(s string) string {
	return strconv.Quote(s)
}

var importScriptTmpl = template.Must(template.New("import").Parse(`import bpy

bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete()

{{if .ImportCall}}{{.ImportCall}}
{{end}}bpy.ops.wm.save_as_mainfile(filepath={{.OutputPath}})
`))

var sceneScriptTmpl = template.Must(template.New("scene").Parse(`import bpy
import math

bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete()

def add_text(body, location, size=1.0):
    bpy.ops.object.text_add(location=location)
    obj = bpy.context.active_object
    obj.data.body = body
    obj.data.size = size
    return obj

add_text("Concept: " + {{.Title}}, (0, 2, 0), 0.5)
add_text("Project Type: " + {{.ProjectType}}, (0, 1, 0), 0.5)
add_text("Genre: " + {{.Genre}}, (0, 0, 0), 0.5)

def import_group(run_import, name, location):
    before = set(bpy.data.objects)
    run_import()
    new_objs = [o for o in bpy.data.objects if o not in before]
    if not new_objs:
        return None
    bpy.ops.object.empty_add(type='PLAIN_AXES', location=location)
    parent = bpy.context.active_object
    parent.name = name
    for o in new_objs:
        o.parent = parent
    return parent
{{range .Models}}
group = import_group(lambda: {{.ImportCall}}, {{.Name}}, ({{.X}}, {{.Y}}, {{.Z}}))
if group:
    add_text({{.Label}}, ({{.X}}, {{.LabelY}}, 0), 0.3)
{{end}}
light_collection = bpy.data.collections.new("Studio Lighting")
bpy.context.scene.collection.children.link(light_collection)

def add_area_light(name, energy, location, rotation):
    light = bpy.data.lights.new(name=name, type='AREA')
    light.energy = energy
    obj = bpy.data.objects.new(name=name, object_data=light)
    obj.location = location
    obj.rotation_euler = tuple(math.radians(a) for a in rotation)
    light_collection.objects.link(obj)

add_area_light("Key Light", 300, (5, -5, 5), (45, 0, 45))
add_area_light("Fill Light", 150, (-5, -2, 3), (30, 0, -45))
add_area_light("Rim Light", 200, (0, 5, 4), (60, 0, 180))

camera_data = bpy.data.cameras.new("Ideation Camera")
camera_object = bpy.data.objects.new("Ideation Camera", camera_data)
bpy.context.scene.collection.objects.link(camera_object)
bpy.context.scene.camera = camera_object
camera_object.location = (0, -10, 2)
camera_object.rotation_euler = (math.radians(80), 0, 0)

bpy.ops.wm.save_as_mainfile(filepath={{.OutputPath}})
`))

type importScriptData struct {
	ImportCall string
	OutputPath string // quoted
}

type sceneScriptData struct {
	Title       string // quoted
	ProjectType string // quoted
	Genre       string // quoted
	Models      []sceneModelData
	OutputPath  string // quoted
}

type sceneModelData struct {
	ImportCall string
	Name       string // quoted
	Label      string // quoted
	X, Y, Z    float64
	LabelY     float64
}

// writeScript renders a template into a temp .py file and returns its path.
func writeScript(tmpl *template.Template, data any) (string, error) {
	f, err := os.CreateTemp("", "ideaboard_*.py")
	if err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write script: %w", err)
	}
	return f.Name(), nil
}

// runHeadless executes one generated script in background mode, waiting
// for Blender to exit. The script is removed on every path.
func (b *BlenderIntegration) runHeadless(ctx context.Context, tmpl *template.Template, data any) error {
	scriptPath, err := writeScript(tmpl, data)
	if err != nil {
		return err
	}
	defer os.Remove(scriptPath)

	return b.runner.Run(ctx, b.exePath, "--background", "--python", scriptPath)
}

// ImportModel builds a project containing a single imported model and
// saves it at projectPath (a temp .blend when empty). A non-zero Blender
// exit is the only failure signal consulted.
func (b *BlenderIntegration) ImportModel(ctx context.Context, modelPath, projectPath string) (string, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return "", fmt.Errorf("model file not found: %s", modelPath)
	}
	if projectPath == "" {
		projectPath = filepath.Join(os.TempDir(), fmt.Sprintf("ideation_%d.blend", time.Now().Unix()))
	}

	data := importScriptData{OutputPath: pyString(projectPath)}
	if call, ok := importCall(modelPath); ok {
		data.ImportCall = call
	} else {
		log.Printf("Unsupported model format, skipping import: %s", modelPath)
	}

	if err := b.runHeadless(ctx, importScriptTmpl, data); err != nil {
		return "", fmt.Errorf("import model: %w", err)
	}
	return projectPath, nil
}

// CreateScene assembles the full ideation scene for a session: metadata
// labels, up to two grouped model imports at fixed offsets, three-point
// studio lighting and a camera. Missing or unsupported models are skipped;
// the scene is valid without them.
func (b *BlenderIntegration) CreateScene(ctx context.Context, s *models.Session, outputPath string) (string, error) {
	if outputPath == "" {
		outputPath = filepath.Join(os.TempDir(), fmt.Sprintf("ideation_scene_%d.blend", time.Now().Unix()))
	}

	data := sceneScriptData{
		Title:       pyString(s.Title),
		ProjectType: pyString(s.ProjectType),
		Genre:       pyString(s.Genre),
		OutputPath:  pyString(outputPath),
	}

	addModel := func(path *string, label string, x float64) {
		if path == nil || *path == "" {
			return
		}
		if _, err := os.Stat(*path); err != nil {
			log.Printf("Scene model missing, skipping: %s", *path)
			return
		}
		call, ok := importCall(*path)
		if !ok {
			log.Printf("Unsupported model format, skipping: %s", *path)
			return
		}
		data.Models = append(data.Models, sceneModelData{
			ImportCall: call,
			Name:       pyString(filepath.Base(*path)),
			Label:      pyString(label),
			X:          x,
			Y:          -3,
			Z:          0,
			LabelY:     -5,
		})
	}
	addModel(s.Sketch3DPath, "From Sketch", -3)
	addModel(s.Text3DPath, "From Description", 3)

	if err := b.runHeadless(ctx, sceneScriptTmpl, data); err != nil {
		return "", fmt.Errorf("create scene: %w", err)
	}
	return outputPath, nil
}

// LaunchWithScene opens Blender interactively on an existing project file.
// Fire-and-forget: the process is detached and never waited on.
func (b *BlenderIntegration) LaunchWithScene(projectPath string) error {
	if _, err := os.Stat(projectPath); err != nil {
		return fmt.Errorf("blend file not found: %s", projectPath)
	}
	if err := b.runner.Start(b.exePath, projectPath); err != nil {
		return fmt.Errorf("launch blender: %w", err)
	}
	return nil
}

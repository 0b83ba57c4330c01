package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeFramedPage writes a 600x800 white page with one framed question at
// (50,50,400,200).
func writeFramedPage(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 600, 800))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 50; y < 250; y++ {
		for x := 50; x < 450; x++ {
			if x < 53 || x >= 447 || y < 53 || y >= 247 {
				img.SetGray(x, y, color.Gray{})
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "exam-regions "+Version)
	assert.Contains(t, out, "Git commit")
}

func TestSegmentCommand(t *testing.T) {
	t.Setenv("EXAM_REGIONS_LOG_LEVEL", "")
	t.Setenv("EXAM_REGIONS_OUTPUT_DIR", "")
	t.Setenv("EXAM_REGIONS_WORKERS", "")

	pages := t.TempDir()
	writeFramedPage(t, filepath.Join(pages, "scan_1.png"))
	writeFramedPage(t, filepath.Join(pages, "scan_2.png"))
	out := filepath.Join(t.TempDir(), "questions")

	stdout, err := execute(t, "segment", "-o", out, "--format", "jpg", "--overlay", pages)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 questions from 2 pages")

	assert.FileExists(t, filepath.Join(out, "page_1_question_1.jpg"))
	assert.FileExists(t, filepath.Join(out, "page_2_question_1.jpg"))
	assert.FileExists(t, filepath.Join(out, "page_1_regions.jpg"))

	data, err := os.ReadFile(filepath.Join(out, "manifest.json"))
	require.NoError(t, err)
	var manifest struct {
		TotalPages     int `json:"total_pages"`
		TotalQuestions int `json:"total_questions"`
		Pages          []struct {
			Questions []struct {
				BoundingBox []int `json:"bounding_box"`
			} `json:"questions"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, 2, manifest.TotalPages)
	assert.Equal(t, 2, manifest.TotalQuestions)
	assert.Equal(t, []int{50, 50, 400, 200}, manifest.Pages[0].Questions[0].BoundingBox)
}

func TestSegmentCommand_Errors(t *testing.T) {
	_, err := execute(t, "segment")
	assert.Error(t, err, "at least one path is required")

	_, err = execute(t, "segment", "--format", "xyz", t.TempDir())
	assert.Error(t, err)

	_, err = execute(t, "segment", "-o", t.TempDir(), t.TempDir())
	assert.Error(t, err, "an empty directory has no pages")
}

func TestInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_key = 1\n"), 0o644))

	_, err := execute(t, "--config", path, "version")
	require.NoError(t, err, "version does not load configuration")

	_, err = execute(t, "--config", path, "segment", t.TempDir())
	assert.Error(t, err)
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Session is the unit of ideation work: user-supplied metadata plus the
// artifacts each pipeline step produces. The on-disk JSON document uses
// exactly these keys; path fields are null until their step has run.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ProjectType string    `json:"project_type"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SketchPath        *string `json:"sketch_path"`
	RenderedImagePath *string `json:"rendered_image_path"`
	Sketch3DPath      *string `json:"sketch_3d_path"`
	Text3DPath        *string `json:"text_3d_path"`
	BlenderFilePath   *string `json:"blender_file_path"`
}

func NewSession(title, projectType, genre, description string, tags []string) *Session {
	if title == "" {
		title = "Untitled Project"
	}
	if projectType == "" {
		projectType = "Unknown"
	}
	if genre == "" {
		genre = "Unknown"
	}
	if tags == nil {
		tags = []string{}
	}
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.New(),
		Title:       title,
		ProjectType: projectType,
		Genre:       genre,
		Description: description,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch refreshes the mutation timestamp. Every artifact assignment and
// save goes through this.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. The store hands these out so readers can
// marshal a session without holding its lock.
func (s *Session) Clone() *Session {
	out := *s
	out.Tags = make([]string, len(s.Tags))
	copy(out.Tags, s.Tags)
	out.SketchPath = clonePath(s.SketchPath)
	out.RenderedImagePath = clonePath(s.RenderedImagePath)
	out.Sketch3DPath = clonePath(s.Sketch3DPath)
	out.Text3DPath = clonePath(s.Text3DPath)
	out.BlenderFilePath = clonePath(s.BlenderFilePath)
	return &out
}

func clonePath(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Encode writes the session document.
func (s *Session) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// DecodeSession parses a session document. Unknown keys are rejected, and
// a document without an identifier or creation timestamp is invalid;
// documents are only ever produced by Encode, so anything else is corrupt.
func DecodeSession(r io.Reader) (*Session, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var s Session
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("decode session: missing id")
	}
	if s.CreatedAt.IsZero() {
		return nil, fmt.Errorf("decode session: missing created_at")
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

// DecodeSessionBytes is DecodeSession over a byte slice.
func DecodeSessionBytes(data []byte) (*Session, error) {
	return DecodeSession(bytes.NewReader(data))
}

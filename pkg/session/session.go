// Package session keeps the diagrams the local viewer is showing.
//
// A View is created for each generation and holds everything the page
// needs afterwards: the generation result, the mind map renderer with its
// collapse state, and the rendered logic diagram. Views live in process
// memory only and expire after a TTL; nothing is written to disk.
//
// A view serialises its own renderer: Toggle may be called from concurrent
// requests for the same view.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindgraph/pkg/generate"
	"github.com/matzehuels/mindgraph/pkg/logic"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// ErrNotFound is returned for a view that does not exist or has expired.
var ErrNotFound = errors.New("view not found")

// DefaultTTL is how long an idle view is kept.
const DefaultTTL = 2 * time.Hour

// View is one generation as shown by the viewer.
type View struct {
	ID        string
	Result    *generate.Result
	Logic     *logic.Output // nil when there is no diagram
	CreatedAt time.Time
	ExpiresAt time.Time

	mu      sync.Mutex
	mindmap *mindmap.Renderer
	frame   []byte
}

// New creates a view for res and renders its first mind map frame.
func New(res *generate.Result, logicOut *logic.Output, ttl time.Duration, opts ...mindmap.Option) *View {
	r := mindmap.New(res.Tree.Root, opts...)
	now := time.Now()
	return &View{
		ID:        uuid.NewString(),
		Result:    res,
		Logic:     logicOut,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		mindmap:   r,
		frame:     r.Render().SVG(),
	}
}

// IsExpired reports whether the view has outlived its TTL.
func (v *View) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// HasDiagram reports whether the logic diagram tab should be offered.
func (v *View) HasDiagram() bool {
	return v.Logic != nil
}

// MindMapSVG returns the most recent mind map frame.
func (v *View) MindMapSVG() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// Toggle expands or collapses node id and returns the new frame.
func (v *View) Toggle(id mindmap.NodeID) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, err := v.mindmap.Toggle(id)
	if err != nil {
		return nil, err
	}
	v.frame = f.SVG()
	return v.frame, nil
}

// Visible lists the mind map nodes currently drawn.
func (v *View) Visible() []mindmap.VisibleNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mindmap.Visible()
}

// Store holds views.
type Store interface {
	// Get returns the view or ErrNotFound.
	Get(ctx context.Context, id string) (*View, error)

	// Set stores v, replacing any view with the same id.
	Set(ctx context.Context, v *View) error

	// Delete removes a view. Deleting a missing view is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired views.
	Cleanup(ctx context.Context) error
}

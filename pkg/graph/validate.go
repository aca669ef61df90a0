package graph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// Report json field names so messages match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that m has a root and that every node has a non-blank name.
func (m *MindMap) Validate() error {
	if m == nil {
		return errors.New("root is required")
	}
	if err := validate.Struct(m); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Normalize returns a copy of m truncated to [MaxDepth] levels below the
// root, and whether anything was cut off.
func (m *MindMap) Normalize() (*MindMap, bool) {
	if m == nil || m.Root == nil {
		return m, false
	}
	truncated := m.Root.Depth() > MaxDepth
	return &MindMap{Root: m.Root.truncate(MaxDepth)}, truncated
}

// SanitizeReport counts what [LogicDiagram.Sanitize] removed.
type SanitizeReport struct {
	DuplicateNodes int // nodes dropped because their id was already seen
	BlankNodes     int // nodes dropped for a blank id
	DanglingLinks  int // links dropped for an unknown endpoint
	CoercedShapes  int // unknown shapes replaced by rect
}

// Changed reports whether Sanitize altered anything.
func (r SanitizeReport) Changed() bool {
	return r != SanitizeReport{}
}

// Sanitize returns a well-formed copy of d. Duplicate ids keep their first
// occurrence, unknown or empty shapes become [ShapeRect] and links with an
// endpoint that names no node are dropped. d itself is not modified.
func (d *LogicDiagram) Sanitize() (*LogicDiagram, SanitizeReport) {
	var rep SanitizeReport
	if d == nil {
		return nil, rep
	}
	out := &LogicDiagram{
		Nodes: make([]LogicNode, 0, len(d.Nodes)),
		Links: make([]LogicLink, 0, len(d.Links)),
	}
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			rep.BlankNodes++
			continue
		}
		if seen[id] {
			rep.DuplicateNodes++
			continue
		}
		seen[id] = true
		if n.Shape != "" && !n.Shape.Valid() {
			rep.CoercedShapes++
		}
		out.Nodes = append(out.Nodes, LogicNode{ID: id, Label: n.Label, Shape: n.Shape.OrDefault()})
	}
	for _, l := range d.Links {
		src, dst := strings.TrimSpace(l.Source), strings.TrimSpace(l.Target)
		if !seen[src] || !seen[dst] {
			rep.DanglingLinks++
			continue
		}
		out.Links = append(out.Links, LogicLink{Source: src, Target: dst, Label: l.Label})
	}
	return out, rep
}

// formatValidationError joins field errors into one readable message.
func formatValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the top-level type name from a validator namespace,
// turning "MindMap.root.children[1].name" into "root.children[1].name".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

package catalog

import (
	"fmt"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclCatalogFile struct {
	Modules []*hclModule `hcl:"module,block"`
}

type hclModule struct {
	Name        string           `hcl:"name,label"`
	Nodes       []*hclNode       `hcl:"node,block"`
	Connections []*hclConnection `hcl:"connection,block"`
}

type hclNode struct {
	ID       string         `hcl:"id,label"`
	Kind     string         `hcl:"kind"`
	Position []float64      `hcl:"position,optional"`
	Controls hcl.Expression `hcl:"controls,optional"`
}

type hclConnection struct {
	ID           string `hcl:"id,optional"`
	Source       string `hcl:"source"`
	SourceOutput string `hcl:"source_output"`
	Target       string `hcl:"target"`
	TargetInput  string `hcl:"target_input"`
}

// ParseHCL decodes the module blocks of an HCL catalog file:
//
//	module "double" {
//	  node "in" {
//	    kind     = "input"
//	    position = [0, 0]
//	    controls = { key = "value" }
//	  }
//	  connection {
//	    source        = "in"
//	    source_output = "value"
//	    target        = "out"
//	    target_input  = "value"
//	  }
//	}
func ParseHCL(src []byte, filename string) ([]Entry, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, models.NewValidationError("%s", diags.Error()))
	}

	var parsed hclCatalogFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, models.NewValidationError("%s", diags.Error()))
	}

	entries := make([]Entry, 0, len(parsed.Modules))

	for _, module := range parsed.Modules {
		payload, err := module.payload()
		if err != nil {
			return nil, &models.ModuleError{Op: "Decode", Module: module.Name, Err: err}
		}

		entries = append(entries, Entry{Name: module.Name, Payload: payload})
	}

	return entries, nil
}

func (m *hclModule) payload() (*models.Payload, error) {
	payload := models.EmptyPayload()

	for _, n := range m.Nodes {
		controls, err := decodeControls(n.Controls)
		if err != nil {
			return nil, &models.NodeError{Op: "Decode", NodeID: n.ID, Err: err}
		}

		node := &models.Node{ID: n.ID, Kind: models.Kind(n.Kind), Controls: controls}

		switch len(n.Position) {
		case 0:
		case 2:
			node.Position = models.Position{X: n.Position[0], Y: n.Position[1]}
		default:
			return nil, &models.NodeError{Op: "Decode", NodeID: n.ID, Err: models.NewValidationError("position needs two numbers")}
		}

		payload.Nodes = append(payload.Nodes, node)
	}

	for i, c := range m.Connections {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("%s-c%d", m.Name, i+1)
		}

		payload.Connections = append(payload.Connections, &models.Connection{
			ID:           id,
			Source:       c.Source,
			SourceOutput: c.SourceOutput,
			Target:       c.Target,
			TargetInput:  c.TargetInput,
		})
	}

	return payload, nil
}

// decodeControls evaluates a controls object. Values must be numbers or strings.
func decodeControls(expr hcl.Expression) (map[string]any, error) {
	controls := map[string]any{}

	if expr == nil {
		return controls, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, models.NewValidationError("%s", diags.Error())
	}

	if val.IsNull() {
		return controls, nil
	}

	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, models.NewValidationError("controls must be an object, got %s", val.Type().FriendlyName())
	}

	for it := val.ElementIterator(); it.Next(); {
		key, value := it.Element()
		name := key.AsString()

		if value.IsNull() || !value.IsKnown() {
			return nil, fmt.Errorf("control %q: %w", name, models.ErrSerialization)
		}

		switch value.Type() {
		case cty.Number:
			f, _ := value.AsBigFloat().Float64()
			controls[name] = f
		case cty.String:
			controls[name] = value.AsString()
		default:
			return nil, fmt.Errorf("control %q of type %s: %w", name, value.Type().FriendlyName(), models.ErrSerialization)
		}
	}

	return controls, nil
}

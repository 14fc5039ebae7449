package matrix

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// hclMatrixFile represents the top-level structure of a matrix file for decoding.
type hclMatrixFile struct {
	Projects []*hclProject `hcl:"project,block"`
}

// hclProject represents a single `project` block. Profile and Locked apply to
// every target the block declares.
type hclProject struct {
	Name    string       `hcl:"name,label"`
	Profile *string      `hcl:"profile,optional"`
	Locked  *bool        `hcl:"locked,optional"`
	Targets []*hclTarget `hcl:"target,block"`
}

// hclTarget represents a single `target` block. Flags and env stay raw HCL
// until the triple has been parsed, because their expressions may reference
// the target they belong to.
type hclTarget struct {
	Triple string   `hcl:"triple,label"`
	Body   hcl.Body `hcl:",remain"`
}

// targetBodySchema defines the expected structure of a `target` block's body.
var targetBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "flags"},
		{Name: "env"},
	},
}

// Load reads a build matrix from the given path. A single file is parsed
// directly; a directory is searched recursively for .hcl files, which are
// parsed in lexical path order so the matrix order is reproducible.
func Load(ctx context.Context, path string) (*Matrix, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading build matrix", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix path %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to find matrix files in %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no .hcl files under %s", ErrNoTargets, path)
		}
	}

	parser := hclparse.NewParser()
	var targets []Target
	for _, file := range files {
		fileTargets, err := newTargetsFromFile(file, parser)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fileTargets...)
	}

	m, err := New(targets)
	if err != nil {
		return nil, fmt.Errorf("invalid matrix loaded from %s: %w", path, err)
	}

	logger.Debug("Loaded build matrix", "path", path, "targets", m.Len())
	return m, nil
}

// newTargetsFromFile parses a single HCL file and returns the targets found
// within it, in declaration order.
func newTargetsFromFile(filePath string, parser *hclparse.Parser) ([]Target, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse matrix file %s: %w", filePath, diags)
	}

	var parsedFile hclMatrixFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsedFile)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode matrix file %s: %w", filePath, diags)
	}

	var targets []Target
	for _, project := range parsedFile.Projects {
		projectTargets, err := newTargetsFromProject(project, filePath)
		if err != nil {
			return nil, err
		}
		targets = append(targets, projectTargets...)
	}

	return targets, nil
}

// newTargetsFromProject expands one `project` block into its targets.
func newTargetsFromProject(project *hclProject, filePath string) ([]Target, error) {
	profile := "release"
	if project.Profile != nil {
		profile = *project.Profile
	}
	locked := true
	if project.Locked != nil {
		locked = *project.Locked
	}

	targets := make([]Target, 0, len(project.Targets))
	for _, parsedTarget := range project.Targets {
		triple, err := ParseTriple(parsedTarget.Triple)
		if err != nil {
			return nil, fmt.Errorf("project %q in %s: %w", project.Name, filePath, err)
		}

		target := Target{
			Project: project.Name,
			Triple:  triple,
			Profile: profile,
			Locked:  locked,
		}

		bodyContent, diags := parsedTarget.Body.Content(targetBodySchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("target %q in %s: %w", parsedTarget.Triple, filePath, diags)
		}

		evalCtx := evalContextFor(target)
		if attr, exists := bodyContent.Attributes["flags"]; exists {
			target.Flags, err = stringSliceFromExpr(attr.Expr, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("target %q in %s: flags: %w", parsedTarget.Triple, filePath, err)
			}
		}
		if attr, exists := bodyContent.Attributes["env"]; exists {
			target.Env, err = stringMapFromExpr(attr.Expr, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("target %q in %s: env: %w", parsedTarget.Triple, filePath, err)
			}
		}

		targets = append(targets, target)
	}

	return targets, nil
}

// evalContextFor exposes the target being decoded to its own flag and env
// expressions, so a matrix file can write things like
// env = { CC = "${target.arch}-linux-musl-gcc" }.
func evalContextFor(t Target) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"target": cty.ObjectVal(map[string]cty.Value{
				"triple": cty.StringVal(t.Triple.Full()),
				"os":     cty.StringVal(t.Triple.OS),
				"arch":   cty.StringVal(t.Triple.Arch),
				"abi":    cty.StringVal(t.Triple.ABI),
			}),
			"project": cty.ObjectVal(map[string]cty.Value{
				"name":    cty.StringVal(t.Project),
				"profile": cty.StringVal(t.Profile),
			}),
		},
	}
}

// stringSliceFromExpr evaluates an expression expected to yield a list of
// strings.
func stringSliceFromExpr(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsTupleType() && !val.Type().IsListType() {
		return nil, fmt.Errorf("expected a list of strings, got %s", val.Type().FriendlyName())
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.IsNull() || v.Type() != cty.String {
			return nil, fmt.Errorf("expected a list of strings, got element of type %s", v.Type().FriendlyName())
		}
		out = append(out, v.AsString())
	}
	return out, nil
}

// stringMapFromExpr evaluates an expression expected to yield a map of
// strings.
func stringMapFromExpr(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected a map of strings, got %s", val.Type().FriendlyName())
	}

	out := make(map[string]string)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if v.IsNull() || v.Type() != cty.String {
			return nil, fmt.Errorf("expected a map of strings, value for %q has type %s", k.AsString(), v.Type().FriendlyName())
		}
		out[k.AsString()] = v.AsString()
	}
	return out, nil
}

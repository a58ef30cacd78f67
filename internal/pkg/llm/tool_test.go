package llm

import (
	"AgentVendor/internal/pkg/consts"
	"testing"
)

func namesOf(toolset []string) map[string]struct{} {
	set := make(map[string]struct{}, len(toolset))
	for _, name := range toolset {
		set[name] = struct{}{}
	}
	return set
}

func buildNames(enabled []string, searchEnabled *bool, toolCapable bool) []string {
	toolset := BuildToolset(enabled, searchEnabled, toolCapable)
	names := make([]string, 0, len(toolset))
	for _, tool := range toolset {
		names = append(names, tool.Function.Name)
	}
	return names
}

func boolPtr(b bool) *bool { return &b }

func TestBuildToolsetNotToolCapable(t *testing.T) {
	enabled := []string{consts.ToolWebSearch, consts.ToolKnowledgeSearch}
	if got := BuildToolset(enabled, nil, false); got != nil {
		t.Fatalf("non tool-capable model must get no tools, got %d", len(got))
	}
}

func TestBuildToolsetSearchDefaultsOn(t *testing.T) {
	enabled := []string{consts.ToolWebSearch, consts.ToolWebFetch, consts.ToolKnowledgeSearch}

	for _, searchEnabled := range []*bool{nil, boolPtr(true)} {
		names := namesOf(buildNames(enabled, searchEnabled, true))
		if len(names) != 3 {
			t.Fatalf("expected all three tools, got %d", len(names))
		}
		if _, ok := names[consts.ToolWebSearch]; !ok {
			t.Fatalf("web search must stay enabled unless explicitly disabled")
		}
	}
}

func TestBuildToolsetExplicitFalseDropsWebTools(t *testing.T) {
	enabled := []string{consts.ToolWebSearch, consts.ToolWebFetch, consts.ToolKnowledgeSearch}
	names := namesOf(buildNames(enabled, boolPtr(false), true))

	if _, ok := names[consts.ToolWebSearch]; ok {
		t.Fatalf("explicit searchEnabled=false must drop web search")
	}
	if _, ok := names[consts.ToolWebFetch]; ok {
		t.Fatalf("explicit searchEnabled=false must drop web fetch")
	}
	if _, ok := names[consts.ToolKnowledgeSearch]; !ok {
		t.Fatalf("knowledge search is unaffected by the search switch")
	}
}

func TestBuildToolsetIgnoresUnknownTools(t *testing.T) {
	names := buildNames([]string{"time_machine", consts.ToolWebFetch}, nil, true)
	if len(names) != 1 || names[0] != consts.ToolWebFetch {
		t.Fatalf("unknown tool names must be dropped, got %v", names)
	}
}

func TestBuildToolsetEmptyEnabled(t *testing.T) {
	if got := BuildToolset(nil, nil, true); len(got) != 0 {
		t.Fatalf("no enabled tools means empty toolset, got %d", len(got))
	}
}

func TestCallOptionsOnlyChangedParams(t *testing.T) {
	params := &GenerationParams{}
	if got := params.callOptions(); len(got) != 0 {
		t.Fatalf("untouched params must produce no options, got %d", len(got))
	}

	params.Temperature = Float64Param{Value: 0.2, Changed: true}
	params.MaxTokens = IntParam{Value: 1024, Changed: true}
	if got := params.callOptions(); len(got) != 2 {
		t.Fatalf("expected exactly the two changed options, got %d", len(got))
	}

	// 值为零但标记已改，仍然要下发
	params.TopP = Float64Param{Value: 0, Changed: true}
	if got := params.callOptions(); len(got) != 3 {
		t.Fatalf("zero value with Changed=true must still be forwarded, got %d", len(got))
	}
}

package service

import (
	"AgentVendor/internal/api/dto"
	"testing"
)

func TestDetectMentionsMatchesHandles(t *testing.T) {
	roster := []dto.RosterAgent{
		{ID: 1, Handle: "coder"},
		{ID: 2, Handle: "writer"},
		{ID: 3, Handle: "painter"},
	}
	texts := []string{"让 @coder 看看这段代码，@Writer 帮忙润色"}

	mentioned := DetectMentions(texts, roster)
	if len(mentioned) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(mentioned))
	}
	if _, ok := mentioned[1]; !ok {
		t.Fatalf("expected agent 1 mentioned")
	}
	if _, ok := mentioned[2]; !ok {
		t.Fatalf("expected agent 2 mentioned (case insensitive)")
	}
	if _, ok := mentioned[3]; ok {
		t.Fatalf("agent 3 should not be mentioned")
	}
}

func TestDetectMentionsEmptyInputs(t *testing.T) {
	roster := []dto.RosterAgent{{ID: 1, Handle: "coder"}}

	if got := DetectMentions(nil, roster); len(got) != 0 {
		t.Fatalf("expected empty result for nil texts, got %d", len(got))
	}
	if got := DetectMentions([]string{"hello"}, nil); len(got) != 0 {
		t.Fatalf("expected empty result for nil roster, got %d", len(got))
	}
	if got := DetectMentions([]string{""}, roster); len(got) != 0 {
		t.Fatalf("expected empty result for empty text, got %d", len(got))
	}
}

func TestDetectMentionsSkipsBlankHandle(t *testing.T) {
	roster := []dto.RosterAgent{{ID: 7, Handle: ""}}
	if got := DetectMentions([]string{"anything"}, roster); len(got) != 0 {
		t.Fatalf("blank handle must never match, got %d", len(got))
	}
}

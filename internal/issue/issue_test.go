// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

// allIds lists every catalog entry; keep in sync with the const block.
var allIds = []Id{
	ConfigLoadFailedId,
	VersionNotFoundId,
	DescriptorCycleId,
	DescriptorIncompleteId,
	DownloadFailedId,
	IntegrityFailedId,
	CorruptNativesId,
	LoaderUnsupportedId,
	ProcessorFailedId,
	SignInDeclinedId,
	DeviceCodeExpiredId,
	SessionExpiredId,
	NoGameOwnershipId,
	NotSignedInId,
	JavaNotFoundId,
	PermissionDeniedId,
	InvalidCredentialsId,
	ModProblemsId,
}

func stubRender(t *testing.T) {
	t.Helper()
	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{VersionNotFoundId, false, "Version not found"},
		{DescriptorCycleId, false, "inheritance cycle"},
		{DescriptorIncompleteId, false, "Incomplete version descriptor"},
		{DownloadFailedId, false, "Download failed"},
		{IntegrityFailedId, false, "Integrity check failed"},
		{CorruptNativesId, false, "Corrupt natives archive"},
		{LoaderUnsupportedId, false, "Loader not available"},
		{ProcessorFailedId, false, "installer step failed"},
		{SignInDeclinedId, false, "Sign-in declined"},
		{DeviceCodeExpiredId, false, "code expired"},
		{SessionExpiredId, false, "could not be refreshed"},
		{NoGameOwnershipId, false, "No game profile"},
		{NotSignedInId, false, "Not signed in"},
		{JavaNotFoundId, false, "Java not found"},
		{PermissionDeniedId, false, "Permission denied"},
		{InvalidCredentialsId, false, "Sign-in rejected"},
		{ModProblemsId, false, "Mod problems found"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != len(allIds) {
		t.Errorf("Values() returned %d issues, want %d", len(issues), len(allIds))
	}
	for _, issue := range issues {
		if issue.Id() == 0 {
			t.Error("found issue with ID 0")
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	docs := testIssue.DocLinks()
	docs[0] = "modified"
	if testIssue.DocLinks()[0] != "https://docs.example.com" {
		t.Error("DocLinks() should return a clone")
	}

	ext := testIssue.ExtLinks()
	ext[0] = "modified"
	if testIssue.ExtLinks()[0] != "https://external.example.com" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	stubRender(t)

	rendered, err := Get(NotSignedInId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "blocklaunch login --offline") {
		t.Errorf("Render() output missing the offline hint:\n%s", rendered)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	stubRender(t)

	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"See also", "<https://docs.example.com>", "<https://external.example.com>"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output missing %q", want)
		}
	}
}

func TestAllIssuesRenderWithGlamour(t *testing.T) {
	for _, issue := range Values() {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}

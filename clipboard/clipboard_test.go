package clipboard

import (
	"strings"
	"testing"

	"interviewer/transcript"
)

func TestReport(t *testing.T) {
	turns := []transcript.Turn{
		{Speaker: transcript.Interviewer, Text: "Tell me about yourself"},
		{Speaker: transcript.Candidate, Text: "I am a developer"},
	}
	got := Report("backend_engineer", turns, "  Good start \n")
	want := "Mock interview: backend engineer\n\n" +
		"Interviewer: Tell me about yourself\n" +
		"Candidate: I am a developer\n\n" +
		"Feedback:\nGood start\n"
	if got != want {
		t.Errorf("Report =\n%q\nwant\n%q", got, want)
	}
}

func TestReportFeedbackOnly(t *testing.T) {
	got := Report("", nil, "Solid answers")
	if got != "Feedback:\nSolid answers\n" {
		t.Errorf("Report = %q", got)
	}
	if Report("", nil, "  ") != "" {
		t.Error("blank report not empty")
	}
}

func TestCopyRoundTrip(t *testing.T) {
	if !Available() {
		t.Skip("no clipboard utility")
	}
	if err := Copy("interviewer-clipboard-test"); err != nil {
		t.Skipf("clipboard not usable here: %v", err)
	}
	got, err := Read()
	if err != nil {
		t.Skipf("clipboard read: %v", err)
	}
	if !strings.Contains(got, "interviewer-clipboard-test") {
		t.Errorf("read back %q", got)
	}
}

package transcript

import "testing"

func TestAppendPreservesOrder(t *testing.T) {
	tr := New()
	tr.Append(Interviewer, "Tell me about yourself")
	tr.Append(Candidate, "I am a developer")
	tr.Append(Interviewer, "What is REST?")

	turns := tr.Turns()
	if len(turns) != 3 {
		t.Fatalf("len = %d, want 3", len(turns))
	}
	want := []Turn{
		{Interviewer, "Tell me about yourself"},
		{Candidate, "I am a developer"},
		{Interviewer, "What is REST?"},
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, turns[i], want[i])
		}
	}
}

func TestHistoryLines(t *testing.T) {
	tr := New()
	tr.Append(Interviewer, "Q1")
	tr.Append(Candidate, "A1")

	got := tr.History()
	want := []string{"Interviewer: Q1", "Candidate: A1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	tr := New()
	tr.Append(Interviewer, "Q1")
	turns := tr.Turns()
	turns[0].Text = "mutated"
	if last, _ := tr.Last(); last.Text != "Q1" {
		t.Errorf("transcript mutated through Turns(): %q", last.Text)
	}
}

func TestResetClears(t *testing.T) {
	tr := New()
	tr.Append(Interviewer, "Q1")
	tr.Reset()
	if tr.Len() != 0 {
		t.Fatalf("Len after Reset = %d", tr.Len())
	}
	if _, ok := tr.Last(); ok {
		t.Error("Last should report empty after Reset")
	}
	if h := tr.History(); len(h) != 0 {
		t.Errorf("History after Reset = %v", h)
	}
}

func TestSpeakerString(t *testing.T) {
	if Interviewer.String() != "Interviewer" || Candidate.String() != "Candidate" {
		t.Errorf("unexpected speaker names: %s, %s", Interviewer, Candidate)
	}
	if got := Speaker(7).String(); got != "Speaker(7)" {
		t.Errorf("unknown speaker = %q", got)
	}
}

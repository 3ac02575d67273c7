package natsadapter

import "testing"

func TestSubject(t *testing.T) {
	tests := []struct {
		group, channel, want string
	}{
		{"g1", "members", "squad.group.g1.members"},
		{"g1", "meeting_point", "squad.group.g1.meeting_point"},
		{"g1", "vehicles", ""},
		{"", "members", ""},
		{"g1.>", "members", ""},
		{"*", "meeting_point", ""},
	}
	for _, tt := range tests {
		if got := Subject(tt.group, tt.channel); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.group, tt.channel, got, tt.want)
		}
	}
}

func TestSubjectsMatchStreamWildcard(t *testing.T) {
	for _, s := range []string{MembersSubject("abc"), MeetingPointSubject("abc")} {
		if len(s) <= len(subjectRoot) || s[:len(subjectRoot)] != subjectRoot {
			t.Errorf("%q is outside the %s> stream", s, subjectRoot)
		}
	}
}

package jobclient

import (
	"testing"

	"golang.org/x/text/language"
)

func TestSnapshotMessage(t *testing.T) {
	tests := []struct {
		snap Snapshot
		tag  language.Tag
		want string
	}{
		{snap: Snapshot{}, tag: language.English, want: ""},
		{snap: Snapshot{Notice: NoticeReady}, tag: language.English, want: "Your wallpaper is ready!"},
		{snap: Snapshot{Notice: NoticeProcessingFailed}, tag: language.English, want: "Sorry, something went wrong during processing."},
		{snap: Snapshot{Notice: NoticePollError, Detail: "ignored"}, tag: language.English, want: "Error checking status. Please check the gallery later."},
		{snap: Snapshot{Notice: NoticeSubmissionError, Detail: "status 502: Bad Gateway"}, tag: language.English, want: "Error: status 502: Bad Gateway. Please try again."},
		{snap: Snapshot{Notice: NoticeProcessing}, tag: language.Indonesian, want: "Sedang diproses... mohon tunggu sebentar."},
	}
	for _, tc := range tests {
		if got := tc.snap.Message(tc.tag); got != tc.want {
			t.Fatalf("Message(%v, %q) = %q, want %q", tc.tag, tc.snap.Notice, got, tc.want)
		}
	}
}

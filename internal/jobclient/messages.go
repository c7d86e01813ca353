package jobclient

import (
	"golang.org/x/text/language"

	"wallclient/internal/i18n"
)

var noticeKeys = map[Notice]i18n.Key{
	NoticeValidation:       i18n.Validation,
	NoticeUploading:        i18n.Uploading,
	NoticeProcessing:       i18n.Processing,
	NoticeReady:            i18n.Ready,
	NoticeProcessingFailed: i18n.ProcessingFailed,
	NoticeSubmissionError:  i18n.SubmissionError,
	NoticePollError:        i18n.PollError,
}

// Message renders the user-facing status line for a notice.
func Message(tag language.Tag, notice Notice, detail string) string {
	key, ok := noticeKeys[notice]
	if !ok {
		return ""
	}
	if notice == NoticeSubmissionError {
		return i18n.Text(tag, key, detail)
	}
	return i18n.Text(tag, key)
}

// Message renders the snapshot's status line.
func (s Snapshot) Message(tag language.Tag) string {
	return Message(tag, s.Notice, s.Detail)
}

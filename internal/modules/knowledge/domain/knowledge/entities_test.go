package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocTypeFromLocation(t *testing.T) {
	cases := map[string]string{
		"http://cdn.example.com/files/report.pdf":     DocTypePDF,
		"http://cdn.example.com/files/report.PDF":     DocTypePDF,
		"http://cdn.example.com/files/notes.doc":      DocTypeDoc,
		"http://cdn.example.com/files/notes.docx":     DocTypeDoc,
		"http://cdn.example.com/files/readme.md":      DocTypeText,
		"http://cdn.example.com/files/data.csv":       DocTypeText,
		"cdn.example.com/files/plain":                 DocTypeText,
		"http://cdn.example.com/a.pdf?sign=abc&t=123": DocTypePDF,
		"":                                            DocTypeText,
	}
	for loc, want := range cases {
		assert.Equal(t, want, DocTypeFromLocation(loc), loc)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(StatusPending))
	assert.False(t, IsTerminalStatus(StatusSplitting))
	assert.False(t, IsTerminalStatus(StatusTraining))
	assert.True(t, IsTerminalStatus(StatusComplete))
	assert.True(t, IsTerminalStatus(StatusFail))
}

func TestStageErrorKind(t *testing.T) {
	base := errors.New("connection refused")
	err := NewLoadError(base)

	assert.True(t, IsKind(err, KindLoad))
	assert.False(t, IsKind(err, KindParse))
	assert.Equal(t, KindLoad, KindOf(err))
	assert.ErrorIs(t, err, base)

	wrapped := NewStoreError(NewConfigError(base))
	assert.Equal(t, KindStore, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindLoad))
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailbox-sync/internal/gateway"
	"github.com/nhle/mailbox-sync/internal/model"
)

func TestDownloadTarget(t *testing.T) {
	cases := []struct {
		name     string
		explicit string
		filename string
		want     string
	}{
		{name: "explicit path", explicit: "/tmp/x.bin", filename: "report.pdf", want: "/tmp/x.bin"},
		{name: "filename", filename: "report.pdf", want: filepath.Join("dl", "report.pdf")},
		{name: "directories stripped", filename: "../../etc/passwd", want: filepath.Join("dl", "passwd")},
		{name: "blank filename", filename: "  ", want: filepath.Join("dl", "attachment-a1")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			att := model.Attachment{ID: "a1", Filename: tc.filename}
			assert.Equal(t, tc.want, downloadTarget("dl", tc.explicit, att))
		})
	}
}

func TestWriteDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")

	require.NoError(t, writeDownload(path, gateway.Download{Data: []byte("hello")}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	assert.Error(t, writeDownload(filepath.Join(t.TempDir(), "missing", "x"), gateway.Download{}))
}

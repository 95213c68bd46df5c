package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/careplanner/internal/model"
)

func TestNewPreviewTask(t *testing.T) {
	fileType := "application/pdf"
	task, err := NewPreviewTask(model.AttachmentRecord{
		ID:       "id-1",
		Bucket:   "documents",
		Path:     "service_user/abc/1_plan.pdf",
		FileType: &fileType,
		Owner:    model.ServiceUser("abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, PreviewAttachmentTask, task.Type())

	var payload PreviewPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, PreviewPayload{
		AttachmentID: "id-1",
		Bucket:       "documents",
		Path:         "service_user/abc/1_plan.pdf",
		FileType:     "application/pdf",
	}, payload)
}

func TestNewPreviewTaskWithoutFileType(t *testing.T) {
	task, err := NewPreviewTask(model.AttachmentRecord{ID: "id-2", Bucket: "documents", Path: "p"})
	require.NoError(t, err)
	assert.NotContains(t, string(task.Payload()), "file_type")
}

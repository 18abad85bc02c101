package nats

import (
	"testing"

	"docqa-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "docqa.docqa_progress", Subject(events.TypeRunProgress))
	assert.Equal(t, "docqa.document_uploaded", Subject(events.TypeDocumentUploaded))
}

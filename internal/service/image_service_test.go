package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"annodrive/internal/domain"
)

func newImageFixture(t *testing.T) (*ImageService, *MockVersionManager, *MockImageTransformer, *MockAuditor) {
	t.Helper()
	versions := new(MockVersionManager)
	img := new(MockImageTransformer)
	auditor := &MockAuditor{}
	return NewImageService(versions, img, auditor), versions, img, auditor
}

func TestImageService_RejectsNonImage(t *testing.T) {
	svc, versions, _, _ := newImageFixture(t)
	fileUUID := uuid.New()
	versions.On("CurrentContent", mock.Anything, fileUUID).Return(
		&domain.File{UUID: fileUUID, FileType: domain.FileTypePDF}, []byte("pdf"), nil)

	_, err := svc.Enhance(context.Background(), fileUUID, "alice")
	assert.Error(t, err)
}

func TestImageService_EnhanceCreatesVersion(t *testing.T) {
	svc, versions, img, auditor := newImageFixture(t)
	fileUUID := uuid.New()
	versions.On("CurrentContent", mock.Anything, fileUUID).Return(
		&domain.File{UUID: fileUUID, FileType: domain.FileTypeImage}, []byte("photo"), nil)
	img.On("Enhance", []byte("photo")).Return([]byte("scan"), nil)
	versions.On("CreateVersion", mock.Anything, fileUUID, domain.ActionEnhance,
		[]byte("scan"), mock.Anything).
		Return(&domain.FileVersion{VersionNumber: 2, Action: domain.ActionEnhance}, nil)

	version, err := svc.Enhance(context.Background(), fileUUID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionEnhance, version.Action)
	assert.Contains(t, auditor.Actions, domain.ActionEnhance)
}

func TestImageService_CropCreatesVersion(t *testing.T) {
	svc, versions, img, auditor := newImageFixture(t)
	fileUUID := uuid.New()
	versions.On("CurrentContent", mock.Anything, fileUUID).Return(
		&domain.File{UUID: fileUUID, FileType: domain.FileTypeImage}, []byte("photo"), nil)
	img.On("Crop", []byte("photo"), 10, 20, 300, 200).Return([]byte("cropped"), nil)
	versions.On("CreateVersion", mock.Anything, fileUUID, domain.ActionCrop,
		[]byte("cropped"), mock.Anything).
		Return(&domain.FileVersion{VersionNumber: 2, Action: domain.ActionCrop}, nil)

	version, err := svc.Crop(context.Background(), fileUUID, "alice", 10, 20, 300, 200)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCrop, version.Action)
	assert.Contains(t, auditor.Actions, domain.ActionCrop)
}

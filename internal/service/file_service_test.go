package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"annodrive/internal/domain"
)

func newFileFixture(t *testing.T) (*FileService, *MockFileRepo, *MockVersionRepo, *MockS3, *MockAssembler, *MockImageTransformer, *MockAuditor) {
	t.Helper()
	files := new(MockFileRepo)
	versions := new(MockVersionRepo)
	storage := new(MockS3)
	assembler := new(MockAssembler)
	img := new(MockImageTransformer)
	auditor := &MockAuditor{}
	svc := NewFileService(files, versions, storage, assembler, img, auditor)
	return svc, files, versions, storage, assembler, img, auditor
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	svc, _, _, _, _, _, _ := newFileFixture(t)

	_, err := svc.Upload(context.Background(), &domain.FileUpload{
		Name:     "archive.zip",
		User:     "alice",
		FileData: []byte("data"),
	})
	assert.Error(t, err)
}

func TestUpload_RejectsEmptyUpload(t *testing.T) {
	svc, _, _, _, _, _, _ := newFileFixture(t)

	_, err := svc.Upload(context.Background(), &domain.FileUpload{Name: "doc.pdf", User: "alice"})
	assert.Error(t, err)

	_, err = svc.Upload(context.Background(), nil)
	assert.Error(t, err)
}

func TestCombineImages_EmptySelection(t *testing.T) {
	svc, _, _, _, _, _, _ := newFileFixture(t)

	_, err := svc.CombineImages(context.Background(), nil, "alice")
	assert.Error(t, err)
}

func TestCombineImages_RejectsNonImage(t *testing.T) {
	svc, files, _, _, assembler, _, auditor := newFileFixture(t)
	pdfUUID := uuid.New()
	files.On("GetByUUID", mock.Anything, pdfUUID).Return(
		&domain.File{UUID: pdfUUID, FileType: domain.FileTypePDF, CurrentVersion: 1}, nil)

	_, err := svc.CombineImages(context.Background(), []uuid.UUID{pdfUUID}, "alice")
	assert.Error(t, err)
	assembler.AssertNotCalled(t, "AssemblePDF", mock.Anything, mock.Anything)
	assert.Empty(t, auditor.Actions)
}

func TestCombineImages_UnknownFile(t *testing.T) {
	svc, files, _, _, _, _, _ := newFileFixture(t)
	missing := uuid.New()
	files.On("GetByUUID", mock.Anything, missing).Return(nil, domain.ErrFileNotFound)

	_, err := svc.CombineImages(context.Background(), []uuid.UUID{missing}, "alice")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestCombineImages_EnhancesEachSource(t *testing.T) {
	svc, files, versions, storage, assembler, img, _ := newFileFixture(t)
	first := uuid.New()
	second := uuid.New()

	for i, id := range []uuid.UUID{first, second} {
		files.On("GetByUUID", mock.Anything, id).Return(
			&domain.File{UUID: id, FileType: domain.FileTypeImage, CurrentVersion: 1}, nil)
		versions.On("GetByNumber", mock.Anything, id, 1).Return(
			&domain.FileVersion{FileUUID: id, VersionNumber: 1, S3Key: contentKey(id, 1)}, nil)
		storage.On("GetBytes", mock.Anything, contentKey(id, 1)).
			Return([]byte{byte(i)}, nil)
		img.On("Enhance", []byte{byte(i)}).Return([]byte{byte(i), 0xee}, nil)
	}
	// Сборка падает, чтобы не идти в транзакционную регистрацию файла;
	// важно, что страницы пришли улучшенными и в исходном порядке
	assembler.On("AssemblePDF", mock.Anything,
		[][]byte{{0x00, 0xee}, {0x01, 0xee}}).
		Return(nil, assert.AnError)

	_, err := svc.CombineImages(context.Background(), []uuid.UUID{first, second}, "alice")
	assert.ErrorIs(t, err, assert.AnError)
	assembler.AssertExpectations(t)
}

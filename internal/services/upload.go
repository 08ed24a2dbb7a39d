package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"alfredoptarigan/resume-studio/internal/models"
)

const (
	msgInvalidFileType = "Invalid file type. Please upload a .pdf file only."
	msgUnreadableFile  = "Error reading file. Please try again."
)

// UploadService turns uploaded resumes into data URIs and rejects anything
// that is not a readable PDF before a pipeline sees it.
type UploadService interface {
	ReadResume(field string, file *multipart.FileHeader) (models.DataURI, error)
	CheckReadable(field string, doc models.DataURI) error
}

type uploadService struct {
	maxFileSize int64
	parser      PDFParserService
}

func NewUploadService(maxFileSize int64, parser PDFParserService) UploadService {
	return &uploadService{maxFileSize: maxFileSize, parser: parser}
}

// ReadResume implements UploadService. Rejections are models.FieldErrors
// keyed by field.
func (s *uploadService) ReadResume(field string, file *multipart.FileHeader) (models.DataURI, error) {
	errs := models.FieldErrors{}

	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		errs.Add(field, fmt.Sprintf("File is too large. The maximum size is %d MB.", s.maxFileSize>>20))
		return models.DataURI{}, errs.Err()
	}

	declared := declaredType(file)
	if declared != "" && declared != "application/octet-stream" && declared != models.MIMETypePDF {
		errs.Add(field, msgInvalidFileType)
		return models.DataURI{}, errs.Err()
	}

	src, err := file.Open()
	if err != nil {
		errs.Add(field, msgUnreadableFile)
		return models.DataURI{}, errs.Err()
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		errs.Add(field, msgUnreadableFile)
		return models.DataURI{}, errs.Err()
	}
	if len(data) == 0 {
		errs.Add(field, "The uploaded file is empty.")
		return models.DataURI{}, errs.Err()
	}

	if sniffed := http.DetectContentType(data); sniffed != models.MIMETypePDF {
		errs.Add(field, msgInvalidFileType)
		return models.DataURI{}, errs.Err()
	}

	doc := models.NewDataURI(models.MIMETypePDF, data)
	if err := s.CheckReadable(field, doc); err != nil {
		return models.DataURI{}, err
	}
	return doc, nil
}

// CheckReadable implements UploadService. Documents without a text layer
// pass; the model reads the attachment itself.
func (s *uploadService) CheckReadable(field string, doc models.DataURI) error {
	if s.parser == nil {
		return nil
	}
	if _, err := s.parser.ExtractText(doc.Data); err != nil && !errors.Is(err, ErrNoPDFText) {
		errs := models.FieldErrors{}
		errs.Add(field, msgUnreadableFile)
		return errs.Err()
	}
	return nil
}

func declaredType(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return strings.ToLower(mediaType)
		}
	}
	if strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return models.MIMETypePDF
	}
	return ""
}

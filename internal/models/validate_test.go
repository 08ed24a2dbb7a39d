package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfURI = "data:application/pdf;base64,JVBERi0xLjQ="

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       AnalysisRequest
		wantField string
	}{
		{name: "text resume", req: AnalysisRequest{JobDescription: "Go dev", ResumeInput: ResumeInput{Text: "5 years Go"}}},
		{name: "pdf resume", req: AnalysisRequest{JobDescription: "Go dev", ResumeInput: ResumeInput{DataURI: pdfURI}}},
		{name: "blank job description", req: AnalysisRequest{JobDescription: "  ", ResumeInput: ResumeInput{Text: "x"}}, wantField: "job_description"},
		{name: "no resume", req: AnalysisRequest{JobDescription: "Go dev"}, wantField: "resume"},
		{name: "both resumes", req: AnalysisRequest{JobDescription: "Go dev", ResumeInput: ResumeInput{Text: "x", DataURI: pdfURI}}, wantField: "resume"},
		{name: "png resume", req: AnalysisRequest{JobDescription: "Go dev", ResumeInput: ResumeInput{DataURI: "data:image/png;base64,aGk="}}, wantField: "resume_data_uri"},
		{name: "unreadable data uri", req: AnalysisRequest{JobDescription: "Go dev", ResumeInput: ResumeInput{DataURI: "data:application/pdf;base64,@@"}}, wantField: "resume_data_uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}
}

func TestSummaryRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       SummaryRequest
		wantField string
	}{
		{name: "text defaults", req: SummaryRequest{Text: "some text"}},
		{name: "url inferred", req: SummaryRequest{URL: "https://example.com/article", Length: LengthShort}},
		{name: "empty text", req: SummaryRequest{Mode: ModeText}, wantField: "text"},
		{name: "relative url", req: SummaryRequest{Mode: ModeURL, URL: "/article"}, wantField: "url"},
		{name: "non web scheme", req: SummaryRequest{Mode: ModeURL, URL: "ftp://example.com"}, wantField: "url"},
		{name: "bad length", req: SummaryRequest{Text: "x", Length: "tiny"}, wantField: "length"},
		{name: "bad mode", req: SummaryRequest{Mode: "audio", Text: "x"}, wantField: "mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.WithDefaults().Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}
}

func TestSummaryRequestDefaults(t *testing.T) {
	req := SummaryRequest{URL: "https://example.com"}.WithDefaults()
	assert.Equal(t, ModeURL, req.Mode)
	assert.Equal(t, LengthMedium, req.Length)
}

func TestDemoResumeRequestValidate(t *testing.T) {
	assert.NoError(t, DemoResumeRequest{JobDescription: "SRE"}.WithDefaults().Validate())
	assert.Equal(t, LevelFresher, DemoResumeRequest{}.WithDefaults().ExperienceLevel)

	fe := fieldErrors(t, DemoResumeRequest{ExperienceLevel: "principal"}.Validate())
	assert.Contains(t, fe, "job_description")
	assert.Contains(t, fe, "experience_level")
}

func TestJobSearchRequestValidate(t *testing.T) {
	assert.NoError(t, JobSearchRequest{ResumeDataURI: pdfURI}.Validate())
	assert.Contains(t, fieldErrors(t, JobSearchRequest{}.Validate()), "resume")
	assert.Contains(t, fieldErrors(t, JobSearchRequest{ResumeDataURI: "data:image/png;base64,aGk="}.Validate()), "resume_data_uri")
}

func TestFieldErrorsMessageIsSorted(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("url", "bad")
	fe.Add("length", "bad")
	fe.Add("url", "ignored")
	assert.Equal(t, "validation failed: length: bad; url: bad", fe.Error())
	assert.Nil(t, FieldErrors{}.Err())
}

func TestJobListingApplyLink(t *testing.T) {
	assert.False(t, JobListing{ApplyLink: NoApplyLink}.HasApplyLink())
	assert.False(t, JobListing{}.HasApplyLink())
	assert.True(t, JobListing{ApplyLink: "https://example.com/careers/1"}.HasApplyLink())
}

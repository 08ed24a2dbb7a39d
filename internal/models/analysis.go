package models

import "strings"

// ResumeInput carries exactly one resume representation.
type ResumeInput struct {
	Text    string `json:"resume_text,omitempty"`
	DataURI string `json:"resume_data_uri,omitempty"`
}

func (r ResumeInput) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

func (r ResumeInput) HasDocument() bool {
	return strings.TrimSpace(r.DataURI) != ""
}

// Document decodes the uploaded resume.
func (r ResumeInput) Document() (DataURI, error) {
	return ParseDataURI(r.DataURI)
}

// CanonicalDataURI re-encodes the document with a lowercase MIME type and
// base64 payload. Unparseable or empty input is returned unchanged.
func (r ResumeInput) CanonicalDataURI() string {
	if !r.HasDocument() {
		return r.DataURI
	}
	doc, err := r.Document()
	if err != nil {
		return r.DataURI
	}
	return doc.String()
}

func (r ResumeInput) validate(errs FieldErrors) {
	switch {
	case r.HasText() && r.HasDocument():
		errs.Add("resume", "Provide either resume text or a resume file, not both.")
	case !r.HasText() && !r.HasDocument():
		errs.Add("resume", "Please enter your resume text or upload your resume file (.pdf).")
	case r.HasDocument():
		doc, err := r.Document()
		if err != nil {
			errs.Add("resume_data_uri", "Error reading file. Please try again.")
			return
		}
		if !doc.IsPDF() {
			errs.Add("resume_data_uri", "Invalid file type. Please upload a .pdf file only.")
			return
		}
		if doc.IsEmpty() {
			errs.Add("resume_data_uri", "The uploaded file is empty.")
		}
	}
}

type AnalysisRequest struct {
	JobDescription string `json:"job_description"`
	ResumeInput
}

func (r AnalysisRequest) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(r.JobDescription) == "" {
		errs.Add("job_description", "Please enter the job description.")
	}
	r.ResumeInput.validate(errs)
	return errs.Err()
}

// KeywordAnalysis is model-produced; PresentInResume and MissingFromResume
// are expected to partition JobDescriptionKeywords but nothing enforces it.
type KeywordAnalysis struct {
	JobDescriptionKeywords []string `json:"jobDescriptionKeywords"`
	PresentInResume        []string `json:"presentInResume"`
	MissingFromResume      []string `json:"missingFromResume"`
}

type AnalysisResult struct {
	MatchScore  string          `json:"matchScore"`
	Suggestions string          `json:"suggestions"`
	Keywords    KeywordAnalysis `json:"keywords"`
}

type ModificationRequest struct {
	JobDescription   string `json:"job_description"`
	ResumeInput
	PriorSuggestions string `json:"prior_suggestions"`
}

func (r ModificationRequest) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(r.JobDescription) == "" {
		errs.Add("job_description", "Please enter the job description.")
	}
	r.ResumeInput.validate(errs)
	return errs.Err()
}

type ModificationResult struct {
	ModifiedResumeText string         `json:"modifiedResumeText"`
	NewAnalysis        AnalysisResult `json:"newAnalysis"`
}

package services

import (
	"alfredoptarigan/resume-studio/internal/models"
)

const (
	FlowSummarizeText      = "summarize-text"
	FlowSummarizeWebpage   = "summarize-webpage"
	FlowSummarizeLength    = "summarize-with-length"
	FlowAnalyzeResume      = "analyze-resume"
	FlowGenerateDemoResume = "generate-demo-resume"
	FlowModifyResume       = "modify-resume"
	FlowFindJobsByResume   = "find-jobs-by-resume"
)

type SummarizeTextInput struct {
	Text   string               `json:"text"`
	Length models.SummaryLength `json:"length"`
}

type SummarizeWebpageInput struct {
	URL       string `json:"url"`
	PageTitle string `json:"pageTitle,omitempty"`
	PageText  string `json:"pageText,omitempty"`
}

type ResizeSummaryInput struct {
	Content string               `json:"content"`
	Length  models.SummaryLength `json:"length"`
}

// AnalyzeResumeInput carries either ResumeText or ResumeDataURI. ExtractedText
// is the locally extracted text of the document, if any.
type AnalyzeResumeInput struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resumeText,omitempty"`
	ResumeDataURI  string `json:"resumeDataUri,omitempty"`
	ExtractedText  string `json:"extractedText,omitempty"`
}

type ModifyResumeInput struct {
	JobDescription      string `json:"jobDescription"`
	ResumeText          string `json:"resumeText,omitempty"`
	ResumeDataURI       string `json:"resumeDataUri,omitempty"`
	ExtractedText       string `json:"extractedText,omitempty"`
	AnalysisSuggestions string `json:"analysisSuggestions"`
}

type DemoResumeInput struct {
	JobDescription  string                 `json:"jobDescription"`
	ExperienceLevel models.ExperienceLevel `json:"experienceLevel"`
}

type FindJobsInput struct {
	ResumeDataURI string `json:"resumeDataUri"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// Flows is the set of model-backed operations.
type Flows struct {
	SummarizeText       *Flow[SummarizeTextInput, models.SummaryResult]
	SummarizeWebpage    *Flow[SummarizeWebpageInput, models.WebpageSummary]
	SummarizeWithLength *Flow[ResizeSummaryInput, models.SummaryResult]
	AnalyzeResume       *Flow[AnalyzeResumeInput, models.AnalysisResult]
	GenerateDemoResume  *Flow[DemoResumeInput, models.DemoResume]
	ModifyResume        *Flow[ModifyResumeInput, models.ModificationResult]
	FindJobsByResume    *Flow[FindJobsInput, models.JobSearchResult]
}

func NewFlows(invoker *ModelInvoker) (*Flows, error) {
	var (
		fl  Flows
		err error
	)

	if fl.SummarizeText, err = newFlow[SummarizeTextInput, models.SummaryResult](
		FlowSummarizeText, "summarize_text", invoker); err != nil {
		return nil, err
	}
	if fl.SummarizeWebpage, err = newFlow[SummarizeWebpageInput, models.WebpageSummary](
		FlowSummarizeWebpage, "summarize_webpage", invoker); err != nil {
		return nil, err
	}
	if fl.SummarizeWithLength, err = newFlow[ResizeSummaryInput, models.SummaryResult](
		FlowSummarizeLength, "summarize_with_length", invoker); err != nil {
		return nil, err
	}
	if fl.AnalyzeResume, err = newFlow(FlowAnalyzeResume, "analyze_resume", invoker,
		withMedia[AnalyzeResumeInput, models.AnalysisResult](func(in AnalyzeResumeInput) ([]models.DataURI, error) {
			return attachment(in.ResumeDataURI)
		}),
		withNormalize[AnalyzeResumeInput](normalizeAnalysis),
	); err != nil {
		return nil, err
	}
	if fl.GenerateDemoResume, err = newFlow[DemoResumeInput, models.DemoResume](
		FlowGenerateDemoResume, "generate_demo_resume", invoker); err != nil {
		return nil, err
	}
	if fl.ModifyResume, err = newFlow(FlowModifyResume, "modify_resume", invoker,
		withMedia[ModifyResumeInput, models.ModificationResult](func(in ModifyResumeInput) ([]models.DataURI, error) {
			return attachment(in.ResumeDataURI)
		}),
		withNormalize[ModifyResumeInput](func(out models.ModificationResult) models.ModificationResult {
			out.NewAnalysis = normalizeAnalysis(out.NewAnalysis)
			return out
		}),
	); err != nil {
		return nil, err
	}
	if fl.FindJobsByResume, err = newFlow(FlowFindJobsByResume, "find_jobs_by_resume", invoker,
		withMedia[FindJobsInput, models.JobSearchResult](func(in FindJobsInput) ([]models.DataURI, error) {
			return attachment(in.ResumeDataURI)
		}),
		withDefault[FindJobsInput](func() models.JobSearchResult {
			return models.JobSearchResult{Jobs: []models.JobListing{}}
		}),
		withNormalize[FindJobsInput](normalizeJobs),
	); err != nil {
		return nil, err
	}

	return &fl, nil
}

func attachment(dataURI string) ([]models.DataURI, error) {
	if dataURI == "" {
		return nil, nil
	}
	doc, err := models.ParseDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	return []models.DataURI{doc}, nil
}

func normalizeAnalysis(a models.AnalysisResult) models.AnalysisResult {
	if a.Keywords.JobDescriptionKeywords == nil {
		a.Keywords.JobDescriptionKeywords = []string{}
	}
	if a.Keywords.PresentInResume == nil {
		a.Keywords.PresentInResume = []string{}
	}
	if a.Keywords.MissingFromResume == nil {
		a.Keywords.MissingFromResume = []string{}
	}
	return a
}

func normalizeJobs(r models.JobSearchResult) models.JobSearchResult {
	if r.Jobs == nil {
		r.Jobs = []models.JobListing{}
	}
	if len(r.Jobs) > models.MaxJobListings {
		r.Jobs = r.Jobs[:models.MaxJobListings]
	}
	for i := range r.Jobs {
		if !r.Jobs[i].HasApplyLink() {
			r.Jobs[i].ApplyLink = models.NoApplyLink
		}
	}
	return r
}

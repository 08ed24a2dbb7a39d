package services

import (
	"context"
	"errors"
	"log"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/statemachine"
)

const (
	PipelineResume     = "resume-revision"
	PipelineSummarizer = "webpage-summarization"
	PipelineDemo       = "demo-resume"
	PipelineJobs       = "job-search"
)

// documentText extracts the text of an uploaded PDF to accompany the
// attachment in the prompt. Unreadable documents yield no text; the
// attachment itself is still sent.
func documentText(parser PDFParserService, in models.ResumeInput) string {
	if parser == nil || !in.HasDocument() {
		return ""
	}
	doc, err := in.Document()
	if err != nil {
		return ""
	}
	content, err := parser.ExtractText(doc.Data)
	if err != nil {
		if !errors.Is(err, ErrNoPDFText) {
			log.Printf("⚠️  Failed to extract resume text: %v\n", err)
		}
		return ""
	}
	return content.Text
}

// ResumeRevisionPipeline analyzes a resume against a job description and,
// when asked, rewrites it from the analysis suggestions.
type ResumeRevisionPipeline struct {
	flows    *Flows
	parser   PDFParserService
	reporter stageReporter
}

func NewResumeRevisionPipeline(flows *Flows, parser PDFParserService, notifier Notifier) *ResumeRevisionPipeline {
	return &ResumeRevisionPipeline{
		flows:    flows,
		parser:   parser,
		reporter: stageReporter{pipeline: PipelineResume, notifier: notifier},
	}
}

// Analyze runs the first stage.
func (p *ResumeRevisionPipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	in := AnalyzeResumeInput{
		JobDescription: req.JobDescription,
		ResumeText:     req.Text,
		ResumeDataURI:  req.CanonicalDataURI(),
		ExtractedText:  documentText(p.parser, req.ResumeInput),
	}

	var result models.AnalysisResult
	err := p.reporter.track(ctx, FlowAnalyzeResume, func() (err error) {
		result, err = p.flows.AnalyzeResume.Run(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Modify runs the dependent stage. It needs the analysis of the same input;
// without one it returns statemachine.ErrNotReady and calls nothing. The
// answer carries a fresh analysis of the rewritten resume.
func (p *ResumeRevisionPipeline) Modify(ctx context.Context, req models.AnalysisRequest, prior *models.AnalysisResult) (*models.ModificationResult, error) {
	if prior == nil {
		return nil, statemachine.ErrNotReady
	}

	mod := models.ModificationRequest{
		JobDescription:   req.JobDescription,
		ResumeInput:      req.ResumeInput,
		PriorSuggestions: prior.Suggestions,
	}
	if err := mod.Validate(); err != nil {
		return nil, err
	}

	in := ModifyResumeInput{
		JobDescription:      mod.JobDescription,
		ResumeText:          mod.Text,
		ResumeDataURI:       mod.CanonicalDataURI(),
		ExtractedText:       documentText(p.parser, mod.ResumeInput),
		AnalysisSuggestions: mod.PriorSuggestions,
	}

	var result models.ModificationResult
	err := p.reporter.track(ctx, FlowModifyResume, func() (err error) {
		result, err = p.flows.ModifyResume.Run(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SummarizationPipeline summarizes pasted text in one call, or a web page in
// two: summarize the page, then resize the summary to the requested length.
type SummarizationPipeline struct {
	flows    *Flows
	fetcher  PageFetcher
	reporter stageReporter
}

// NewSummarizationPipeline builds the pipeline. fetcher may be nil, in which
// case the model is given only the URL.
func NewSummarizationPipeline(flows *Flows, fetcher PageFetcher, notifier Notifier) *SummarizationPipeline {
	return &SummarizationPipeline{
		flows:    flows,
		fetcher:  fetcher,
		reporter: stageReporter{pipeline: PipelineSummarizer, notifier: notifier},
	}
}

func (p *SummarizationPipeline) Summarize(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Mode == models.ModeText {
		var result models.SummaryResult
		err := p.reporter.track(ctx, FlowSummarizeText, func() (err error) {
			result, err = p.flows.SummarizeText.Run(ctx, SummarizeTextInput{Text: req.Text, Length: req.Length})
			return err
		})
		if err != nil {
			return nil, err
		}
		return &models.SummaryResult{Summary: result.Summary}, nil
	}

	page, err := p.SummarizeWebpage(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	resized, err := p.Resize(ctx, page.Summary, req.Length)
	if err != nil {
		return nil, err
	}
	return &models.SummaryResult{Summary: resized, SourceURL: page.SourceURL}, nil
}

// SummarizeWebpage is the first stage of a URL summary. A page that cannot
// be fetched locally is left to the model and reported as degraded.
func (p *SummarizationPipeline) SummarizeWebpage(ctx context.Context, rawURL string) (*models.WebpageSummary, error) {
	in := SummarizeWebpageInput{URL: rawURL}

	if p.fetcher != nil {
		page, err := p.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			p.reporter.report(ctx, "fetch-page", StageDegraded, err.Error())
		} else {
			if !sameDocument(page.URL, rawURL) {
				log.Printf("🔀 %s resolved to %s\n", rawURL, page.URL)
			}
			in.PageTitle = page.Title
			in.PageText = page.Text
		}
	}

	var result models.WebpageSummary
	err := p.reporter.track(ctx, FlowSummarizeWebpage, func() (err error) {
		result, err = p.flows.SummarizeWebpage.Run(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Resize is the final stage; it alone enforces the requested length.
func (p *SummarizationPipeline) Resize(ctx context.Context, content string, length models.SummaryLength) (string, error) {
	var result models.SummaryResult
	err := p.reporter.track(ctx, FlowSummarizeLength, func() (err error) {
		result, err = p.flows.SummarizeWithLength.Run(ctx, ResizeSummaryInput{Content: content, Length: length})
		return err
	})
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}

// DemoResumeService writes a sample resume for a job description.
type DemoResumeService struct {
	flows    *Flows
	reporter stageReporter
}

func NewDemoResumeService(flows *Flows, notifier Notifier) *DemoResumeService {
	return &DemoResumeService{flows: flows, reporter: stageReporter{pipeline: PipelineDemo, notifier: notifier}}
}

func (s *DemoResumeService) Generate(ctx context.Context, req models.DemoResumeRequest) (*models.DemoResume, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result models.DemoResume
	err := s.reporter.track(ctx, FlowGenerateDemoResume, func() (err error) {
		result, err = s.flows.GenerateDemoResume.Run(ctx, DemoResumeInput{
			JobDescription:  req.JobDescription,
			ExperienceLevel: req.ExperienceLevel,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// JobSearchService suggests job listings for an uploaded resume. A malformed
// model answer yields an empty list instead of an error.
type JobSearchService struct {
	flows    *Flows
	parser   PDFParserService
	reporter stageReporter
}

func NewJobSearchService(flows *Flows, parser PDFParserService, notifier Notifier) *JobSearchService {
	return &JobSearchService{flows: flows, parser: parser, reporter: stageReporter{pipeline: PipelineJobs, notifier: notifier}}
}

func (s *JobSearchService) Search(ctx context.Context, req models.JobSearchRequest) (*models.JobSearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resume := models.ResumeInput{DataURI: req.ResumeDataURI}
	in := FindJobsInput{
		ResumeDataURI: resume.CanonicalDataURI(),
		ExtractedText: documentText(s.parser, resume),
	}

	var result models.JobSearchResult
	err := s.reporter.track(ctx, FlowFindJobsByResume, func() error {
		out, degraded, err := s.flows.FindJobsByResume.Execute(ctx, in)
		if err != nil {
			return err
		}
		if degraded != nil {
			s.reporter.report(ctx, FlowFindJobsByResume, StageDegraded, degraded.Error())
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

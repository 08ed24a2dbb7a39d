package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"alfredoptarigan/resume-studio/internal/models"
)

// FakeModel is a deterministic ModelClient. It serves MODEL_PROVIDER=fake and
// doubles as the stub in tests: keyword analysis echoes the job description
// terms the resume lacks and summaries grow with the requested length.
type FakeModel struct {
	mu        sync.Mutex
	calls     map[string]int
	responses map[string]string
	failures  map[string]error
}

func NewFakeModel() *FakeModel {
	return &FakeModel{
		calls:     map[string]int{},
		responses: map[string]string{},
		failures:  map[string]error{},
	}
}

// Respond makes every call of flow return raw verbatim.
func (m *FakeModel) Respond(flow, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[flow] = raw
}

// Fail makes every call of flow return err.
func (m *FakeModel) Fail(flow string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[flow] = err
}

// Calls returns how many times flow was invoked.
func (m *FakeModel) Calls(flow string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[flow]
}

// TotalCalls returns the number of invocations across all flows.
func (m *FakeModel) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Generate implements ModelClient.
func (m *FakeModel) Generate(ctx context.Context, inv Invocation) (string, error) {
	m.mu.Lock()
	m.calls[inv.Flow]++
	raw, scripted := m.responses[inv.Flow]
	failure := m.failures[inv.Flow]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if failure != nil {
		return "", failure
	}
	if scripted {
		return raw, nil
	}

	out, err := fakeAnswer(inv)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	// answers arrive fenced, the way hosted models often reply
	return "```json\n" + string(body) + "\n```", nil
}

func fakeAnswer(inv Invocation) (any, error) {
	switch inv.Flow {
	case FlowSummarizeText:
		var in SummarizeTextInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		return models.SummaryResult{Summary: takeWords(in.Text, summaryWords(in.Length))}, nil

	case FlowSummarizeLength:
		var in ResizeSummaryInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		return models.SummaryResult{Summary: takeWords(in.Content, summaryWords(in.Length))}, nil

	case FlowSummarizeWebpage:
		var in SummarizeWebpageInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		content := in.PageText
		if strings.TrimSpace(content) == "" {
			content = "The page at " + in.URL + " discusses its topic in detail."
		}
		return models.WebpageSummary{Summary: takeWords(content, 120), SourceURL: in.URL}, nil

	case FlowAnalyzeResume:
		var in AnalyzeResumeInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		return fakeAnalysis(in.JobDescription, firstNonBlank(in.ResumeText, in.ExtractedText)), nil

	case FlowModifyResume:
		var in ModifyResumeInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		original := firstNonBlank(in.ResumeText, in.ExtractedText)
		before := fakeAnalysis(in.JobDescription, original)
		modified := strings.TrimSpace(original)
		if len(before.Keywords.MissingFromResume) > 0 {
			modified += "\n\nSkills: " + strings.Join(before.Keywords.MissingFromResume, ", ")
		}
		return models.ModificationResult{
			ModifiedResumeText: modified,
			NewAnalysis:        fakeAnalysis(in.JobDescription, modified),
		}, nil

	case FlowGenerateDemoResume:
		var in DemoResumeInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, err
		}
		keywords := extractKeywords(in.JobDescription)
		return models.DemoResume{DemoResume: fmt.Sprintf(
			"JANE DOE\njane.doe@example.com\n\nSUMMARY\n%s candidate targeting this role.\n\nSKILLS\n%s\n",
			strings.ToUpper(string(in.ExperienceLevel[:1]))+string(in.ExperienceLevel[1:]),
			strings.Join(keywords, ", "),
		)}, nil

	case FlowFindJobsByResume:
		return models.JobSearchResult{Jobs: []models.JobListing{
			{CompanyName: "Acme Corp", JobTitle: "Software Engineer", JobDescription: "Build and operate backend services.", MatchPercentage: "82% Match", ApplyLink: "https://acme.example.com/careers/1"},
			{CompanyName: "Globex", JobTitle: "Platform Engineer", JobDescription: "Own the deployment platform.", MatchPercentage: "Strong Fit", ApplyLink: models.NoApplyLink},
			{CompanyName: "Initech", JobTitle: "Data Engineer", JobDescription: "Maintain data pipelines.", MatchPercentage: "70% Match", ApplyLink: models.NoApplyLink},
		}}, nil
	}

	return nil, fmt.Errorf("fake model has no answer for flow %s", inv.Flow)
}

func fakeAnalysis(jobDescription, resume string) models.AnalysisResult {
	keywords := extractKeywords(jobDescription)
	lower := strings.ToLower(resume)

	present := []string{}
	missing := []string{}
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			present = append(present, k)
		} else {
			missing = append(missing, k)
		}
	}

	score := 0
	if len(keywords) > 0 {
		score = len(present) * 100 / len(keywords)
	}

	var suggestions strings.Builder
	for _, k := range missing {
		fmt.Fprintf(&suggestions, "- Highlight experience with %s.\n", k)
	}
	if suggestions.Len() == 0 {
		suggestions.WriteString("- The resume already covers the key requirements.")
	}

	return models.AnalysisResult{
		MatchScore:  fmt.Sprintf("%d%% Match", score),
		Suggestions: strings.TrimSpace(suggestions.String()),
		Keywords: models.KeywordAnalysis{
			JobDescriptionKeywords: keywords,
			PresentInResume:        present,
			MissingFromResume:      missing,
		},
	}
}

// extractKeywords splits a job description on list separators. Long prose
// segments contribute their capitalized words only.
func extractKeywords(text string) []string {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '|'
	})

	seen := map[string]bool{}
	keywords := []string{}
	add := func(k string) {
		k = strings.Trim(k, " .:()-")
		if k == "" || seen[strings.ToLower(k)] {
			return
		}
		seen[strings.ToLower(k)] = true
		keywords = append(keywords, k)
	}

	for _, seg := range segments {
		words := strings.Fields(seg)
		if len(words) <= 3 {
			add(seg)
			continue
		}
		for _, w := range words {
			if r := []rune(w); len(r) > 0 && unicode.IsUpper(r[0]) {
				add(w)
			}
		}
	}
	return keywords
}

func summaryWords(l models.SummaryLength) int {
	switch l {
	case models.LengthShort:
		return 12
	case models.LengthLong:
		return 90
	default:
		return 40
	}
}

// takeWords returns exactly n words, cycling through text when it is shorter.
func takeWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		words = []string{"(empty)"}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = words[i%len(words)]
	}
	return strings.Join(out, " ")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

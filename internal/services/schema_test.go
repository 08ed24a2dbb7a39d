package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-studio/internal/models"
)

func TestEmbeddedSchemasCompile(t *testing.T) {
	entries, err := schemaFS.ReadDir("schemas")
	require.NoError(t, err)
	require.Len(t, entries, 14)

	for _, e := range entries {
		name := e.Name()[:len(e.Name())-len(".json")]
		_, err := LoadSchema(name)
		assert.NoError(t, err, name)
	}
}

func TestParseAnalysis(t *testing.T) {
	s := mustLoadSchema("analyze_resume.output")

	got, err := Parse[models.AnalysisResult](s, []byte(`{
		"matchScore": "80% Match",
		"suggestions": "- add Go",
		"keywords": {"jobDescriptionKeywords": ["Go"], "presentInResume": [], "missingFromResume": ["Go"]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "80% Match", got.MatchScore)
	assert.Equal(t, []string{"Go"}, got.Keywords.MissingFromResume)
}

func TestParseRejectsShapeViolations(t *testing.T) {
	s := mustLoadSchema("analyze_resume.output")

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `matchScore: 80`},
		{"missing keywords", `{"matchScore": "80%", "suggestions": "x"}`},
		{"wrong type", `{"matchScore": 80, "suggestions": "x", "keywords": {"jobDescriptionKeywords": [], "presentInResume": [], "missingFromResume": []}}`},
		{"keywords not array", `{"matchScore": "80%", "suggestions": "x", "keywords": {"jobDescriptionKeywords": "Go", "presentInResume": [], "missingFromResume": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse[models.AnalysisResult](s, []byte(tt.raw))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, "analyze_resume.output", verr.Schema)
			assert.NotEmpty(t, verr.Violations)
		})
	}
}

func TestJobListingApplyLink(t *testing.T) {
	s := mustLoadSchema("find_jobs_by_resume.output")

	ok := `{"jobs": [
		{"companyName": "A", "jobTitle": "B", "jobDescription": "C", "matchPercentage": "90%", "applyLink": "#"},
		{"companyName": "A", "jobTitle": "B", "jobDescription": "C", "matchPercentage": "90%", "applyLink": "https://a.example.com/jobs/1"}
	]}`
	assert.NoError(t, s.ValidateJSON([]byte(ok)))

	bad := `{"jobs": [{"companyName": "A", "jobTitle": "B", "jobDescription": "C", "matchPercentage": "90%", "applyLink": "apply here"}]}`
	assert.Error(t, s.ValidateJSON([]byte(bad)))
}

func TestInputSchemaRequiresOneResume(t *testing.T) {
	s := mustLoadSchema("analyze_resume.input")

	assert.NoError(t, s.ValidateValue(AnalyzeResumeInput{JobDescription: "Go", ResumeText: "Go dev"}))
	assert.NoError(t, s.ValidateValue(AnalyzeResumeInput{JobDescription: "Go", ResumeDataURI: garbagePDF}))
	assert.Error(t, s.ValidateValue(AnalyzeResumeInput{JobDescription: "Go"}))
	assert.Error(t, s.ValidateValue(AnalyzeResumeInput{JobDescription: "Go", ResumeText: "a", ResumeDataURI: garbagePDF}))
	assert.Error(t, s.ValidateValue(AnalyzeResumeInput{JobDescription: "Go", ResumeDataURI: "data:image/png;base64,AAAA"}))
}

package models

import "strings"

// MaxJobListings caps how many simulated listings a search returns.
const MaxJobListings = 5

// NoApplyLink marks a listing without an application URL.
const NoApplyLink = "#"

type JobListing struct {
	CompanyName     string `json:"companyName"`
	JobTitle        string `json:"jobTitle"`
	JobDescription  string `json:"jobDescription"`
	MatchPercentage string `json:"matchPercentage"`
	ApplyLink       string `json:"applyLink"`
}

func (j JobListing) HasApplyLink() bool {
	return j.ApplyLink != "" && j.ApplyLink != NoApplyLink
}

type JobSearchRequest struct {
	ResumeDataURI string `json:"resume_data_uri"`
}

func (r JobSearchRequest) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(r.ResumeDataURI) == "" {
		errs.Add("resume", "Please upload your resume file (.pdf).")
		return errs.Err()
	}
	ResumeInput{DataURI: r.ResumeDataURI}.validate(errs)
	return errs.Err()
}

type JobSearchResult struct {
	Jobs []JobListing `json:"jobs"`
}

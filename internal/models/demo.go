package models

import "strings"

type ExperienceLevel string

const (
	LevelFresher      ExperienceLevel = "fresher"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelSenior       ExperienceLevel = "senior"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelFresher, LevelIntermediate, LevelSenior:
		return true
	}
	return false
}

type DemoResumeRequest struct {
	JobDescription  string          `json:"job_description"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
}

func (r DemoResumeRequest) WithDefaults() DemoResumeRequest {
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = LevelFresher
	}
	return r
}

func (r DemoResumeRequest) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(r.JobDescription) == "" {
		errs.Add("job_description", "Please enter the job description.")
	}
	if !r.ExperienceLevel.Valid() {
		errs.Add("experience_level", "Experience level must be one of fresher, intermediate or senior.")
	}
	return errs.Err()
}

type DemoResume struct {
	DemoResume string `json:"demoResume"`
}

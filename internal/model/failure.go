package model

// Stage names the part of a run an item failed in.
type Stage string

const (
	StageCategories Stage = "categories"
	StageDiscover   Stage = "discover"
	StageEnrich     Stage = "enrich"
	StageDownload   Stage = "download"
	StageCatalog    Stage = "catalog"
	StageDocument   Stage = "document"
	StageImage      Stage = "image"
)

// Failure is one item dropped from a run. Failures never abort a run; they
// are collected for the summary report and the run history.
type Failure struct {
	// Stage is where the failure happened.
	Stage Stage `json:"stage"`

	// Subject identifies the item: a language, a simulation ref, a URL or a file name.
	Subject string `json:"subject"`

	// Error is the failure message.
	Error string `json:"error"`
}

// NewFailure creates a Failure from an error.
func NewFailure(stage Stage, subject string, err error) Failure {
	f := Failure{Stage: stage, Subject: subject}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}

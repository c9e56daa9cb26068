package models

// Report is the validation outcome of a single document.
type Report struct {
	Valid   bool `json:"valid"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Skipped int  `json:"skipped"`
}

// Total returns the number of classified source lines.
func (r Report) Total() int {
	return r.Passed + r.Failed + r.Skipped
}

// DocumentDescriptor identifies one document under test and its optional
// alternate locations. Any of the paths may be a local path or an http(s) URL.
type DocumentDescriptor struct {
	Main string `yaml:"main"`
	Edit string `yaml:"edit,omitempty"`
	Sync string `yaml:"sync,omitempty"`
}

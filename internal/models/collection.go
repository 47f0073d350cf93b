package models

// CollectionDescriptor holds the generation parameters of one content collection.
// Descriptors are defined at startup and never mutated.
type CollectionDescriptor struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Icon           string `json:"icon"`
	PromptTemplate string `json:"-"`
	Theme          string `json:"theme"`
	Category       string `json:"category"`
	TargetCount    int    `json:"targetCount"`
}

// CollectionSummary reports the outcome of one collection in an initialization sweep.
type CollectionSummary struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Existing  int    `json:"existing"`
	Generated int    `json:"generated"`
	Error     string `json:"error,omitempty"`
}

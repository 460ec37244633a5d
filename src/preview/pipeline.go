package preview

// Pipeline executes an ordered sequence of Stages, threading each stage's
// content into the next.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from the given stages. Execution order
// matches the argument order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the names of the configured stages in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Process runs all stages in order and returns the aggregated result.
func (p *Pipeline) Process(content string) Result {
	current := content
	result := Result{
		StageResults: make([]StageResult, 0, len(p.stages)),
	}

	for _, s := range p.stages {
		sr := s.Apply(current)
		if sr.StageName == "" {
			sr.StageName = s.Name()
		}

		result.StageResults = append(result.StageResults, sr)
		result.Links = append(result.Links, sr.Links...)
		result.Marks = append(result.Marks, sr.Marks...)
		result.Notes = append(result.Notes, sr.Notes...)

		if sr.Changed {
			current = sr.Content
		}
	}

	result.Fragment = current
	return result
}

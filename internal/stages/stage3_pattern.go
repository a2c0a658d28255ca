package stages

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// abstractionSpec is job_data/abstraction.json's schema. required maps a
// literal pattern to its weight; banned is a list of regexes that must
// not appear.
type abstractionSpec struct {
	Required map[string]float64 `json:"required"`
	Banned   []string           `json:"banned"`
}

// NewPatternHandler builds the stage 3 handler: score the submission's
// source against required literal patterns and flag banned regexes.
// Required patterns are matched as literal substrings; banned patterns
// are matched as regexes, since they describe shapes (e.g.
// "System\.exit\(") rather than fixed vocabulary.
func NewPatternHandler() interfaces.StageHandler {
	return interfaces.StageHandlerFunc(func(ctx context.Context, job *models.Job) (models.Stage, error) {
		spec, err := loadAbstractionSpec(jobDataDir(job))
		if err != nil {
			return fail(job, "pattern analysis configuration missing", models.StageDelivery)
		}

		source, err := concatenateJavaSources(job.WorkspacePath)
		if err != nil {
			return fail(job, "could not read submission sources", models.StageDelivery)
		}

		var requiredTotal, foundTotal float64
		for pattern, weight := range spec.Required {
			requiredTotal += weight
			count := strings.Count(source, pattern)
			foundTotal += weight * float64(count)
		}

		var score float64
		if requiredTotal > 0 {
			score = (foundTotal/requiredTotal)*100 - 100
		}

		var banned []string
		for _, pattern := range spec.Banned {
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			if re.MatchString(source) {
				banned = append(banned, pattern)
			}
		}

		job.AbstractionScore = &score
		job.BannedMatches = banned

		return models.StageDelivery, nil
	})
}

func loadAbstractionSpec(jobDataDir string) (abstractionSpec, error) {
	data, err := os.ReadFile(filepath.Join(jobDataDir, "abstraction.json"))
	if err != nil {
		return abstractionSpec{}, err
	}
	var spec abstractionSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return abstractionSpec{}, err
	}
	return spec, nil
}

func concatenateJavaSources(root string) (string, error) {
	var b strings.Builder
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".java" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		b.Write(data)
		b.WriteByte('\n')
		return nil
	})
	return b.String(), err
}

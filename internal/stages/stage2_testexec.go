package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dawgym/pipeline/internal/buildtool"
	"github.com/dawgym/pipeline/internal/interfaces"
	"github.com/dawgym/pipeline/internal/models"
)

// testCase is one entry of job_data/test_cases.json.
type testCase struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

type testCasesFile struct {
	TestCases []testCase `json:"test_cases"`
}

// NewTestHandler builds the stage 2 handler: runs each declared test
// case against the compiled project and compares output.
func NewTestHandler() interfaces.StageHandler {
	return interfaces.StageHandlerFunc(func(ctx context.Context, job *models.Job) (models.Stage, error) {
		uDir := userDir(job)
		det := buildtool.DetectResult{Kind: job.ProjectKind, EntryFiles: job.EntryFiles}
		if det.Kind == "ant" || det.Kind == "maven" {
			det.BuildFile = locateBuildFile(job)
		}

		cases, err := loadTestCases(jobDataDir(job))
		if err != nil {
			return fail(job, "test cases could not be loaded", models.StageAdvisory)
		}

		var mainJavaFile string
		if det.Kind == "maven" {
			mainJavaFile, _ = findMainJava(uDir)
		}

		for i, tc := range cases {
			input := strings.Join(tc.Inputs, "\n")
			if input != "" {
				input += "\n"
			}

			res, err := buildtool.RunTestCase(ctx, det, uDir, uDir, mainJavaFile, input)
			if err == buildtool.ErrMainMissing {
				return fail(job, "project has no Main.java", models.StageAdvisory)
			}
			if err != nil {
				return fail(job, "test runner could not be started", models.StageAdvisory)
			}
			if res.TimedOut {
				job.MarkBroken("took too long")
				return models.StageDelivery, nil
			}

			lines := strings.Split(string(res.Output), "\n")
			if det.Kind == "ant" {
				lines = buildtool.StripAntPrefix(lines)
			}
			obtained := strings.Join(lines, "\n")

			if res.ExitCode != 0 {
				job.MarkBroken(diagnostic(truncate(res.Output, 600), res.Output))
				return models.StageAdvisory, nil
			}

			if !buildtool.CompareResults(obtained, tc.Outputs) {
				job.MarkBroken(failureDiagnostic(i, tc, res.Output))
				return models.StageAdvisory, nil
			}
		}

		job.TextContent = "all tests passed"
		return models.StagePattern, nil
	})
}

func diagnostic(truncated string, full []byte) string {
	if len(full) > 600 {
		return "(truncated)\n" + truncated
	}
	return truncated
}

func failureDiagnostic(passed int, tc testCase, output []byte) string {
	return fmt.Sprintf(
		"%d test(s) passed before failure\nInput given: %v\nExpected output: %v\nObtained output: %s",
		passed, tc.Inputs, tc.Outputs, diagnostic(truncate(output, 600), output),
	)
}

func loadTestCases(jobDataDir string) ([]testCase, error) {
	data, err := os.ReadFile(filepath.Join(jobDataDir, "test_cases.json"))
	if err != nil {
		return nil, err
	}
	var f testCasesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.TestCases, nil
}

func locateBuildFile(job *models.Job) string {
	uDir := userDir(job)
	name := "build.xml"
	if job.ProjectKind == "maven" {
		name = "pom.xml"
	}
	var found string
	filepath.WalkDir(uDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if found == "" && d.Name() == name {
			found = path
		}
		return nil
	})
	return found
}

func findMainJava(uDir string) (string, bool) {
	var found string
	filepath.WalkDir(uDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if found == "" && d.Name() == "Main.java" {
			found = path
		}
		return nil
	})
	return found, found != ""
}

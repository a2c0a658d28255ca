// Package buildtool drives the Java toolchains a submission may use,
// Ant, Maven, or a bare javac/java single file, as external subprocesses.
// It never shells out through a string command line; every invocation
// builds an explicit argv and runs under exec.CommandContext so a
// timeout kills the real child process.
package buildtool

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dawgym/pipeline/internal/models"
)

// DetectResult is the outcome of walking a submission directory to decide
// its build toolchain.
type DetectResult struct {
	Kind ProjectKind
	// BuildFile is the absolute path to build.xml or pom.xml, set for Ant
	// and Maven kinds.
	BuildFile string
	// EntryFiles holds the single *.java path for SingleFile kind.
	EntryFiles []string
}

// ProjectKind mirrors models.ProjectKind; re-exported so callers that only
// need detection don't have to import models too.
type ProjectKind = models.ProjectKind

// ErrUndetermined is returned when no build.xml, pom.xml, or lone *.java
// file can be found.
var ErrUndetermined = fmt.Errorf("project type could not be determined")

// ErrNoSources is returned when the tree has zero .java files at all,
// distinct from ErrUndetermined so callers can choose the more specific
// "no source files" message.
var ErrNoSources = fmt.Errorf("no source files")

// Detect walks root looking for build.xml, then pom.xml, then a lone
// *.java file, in that precedence order.
func Detect(root string) (DetectResult, error) {
	var buildXML, pomXML string
	var javaFiles []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // tolerate unreadable subtrees, keep scanning
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case d.Name() == "build.xml" && buildXML == "":
			buildXML = path
		case d.Name() == "pom.xml" && pomXML == "":
			pomXML = path
		case filepath.Ext(d.Name()) == ".java":
			javaFiles = append(javaFiles, path)
		}
		return nil
	})
	if err != nil {
		return DetectResult{}, fmt.Errorf("detect: walk %s: %w", root, err)
	}

	if buildXML != "" {
		return DetectResult{Kind: models.ProjectAnt, BuildFile: buildXML}, nil
	}
	if pomXML != "" {
		return DetectResult{Kind: models.ProjectMaven, BuildFile: pomXML}, nil
	}
	if len(javaFiles) == 1 {
		return DetectResult{Kind: models.ProjectSingleFile, EntryFiles: javaFiles}, nil
	}
	if len(javaFiles) == 0 {
		return DetectResult{}, ErrNoSources
	}
	return DetectResult{}, ErrUndetermined
}

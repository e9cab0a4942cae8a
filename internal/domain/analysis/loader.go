package analysis

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Artifact locations under the loader root, one bundle per target directory.
const (
	benchmarkFile     = "security/cis_benchmark_report.json"
	vulnerabilityFile = "security/trivy_vulnerability_report.json"
	sbomFile          = "security/sbom_report.json"
	policiesGlob      = "policies"
	logsGlob          = "logs"
)

// Loader reads the artifact bundle for one run. Every artifact is optional:
// a missing file yields an empty record set and an informational log line,
// a malformed file yields a warning and is skipped. Loading never aborts
// the run.
type Loader struct {
	Root string
}

// Load reads all artifact types. The independent reads run in parallel and
// are merged into the type-keyed dataset afterwards, so downstream ordering
// does not depend on completion order.
func (l Loader) Load(_ context.Context) (SourceDataset, []Warning) {
	var (
		ds SourceDataset
		wg sync.WaitGroup

		benchWarns, vulnWarns, sbomWarns, policyWarns, logWarns []Warning
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		ds.Benchmark, benchWarns = loadJSON[BenchmarkReport](l.Root, benchmarkFile)
	}()
	go func() {
		defer wg.Done()
		ds.Vulnerabilities, vulnWarns = loadJSON[VulnerabilityReport](l.Root, vulnerabilityFile)
	}()
	go func() {
		defer wg.Done()
		ds.SBOM, sbomWarns = loadJSON[SBOMDocument](l.Root, sbomFile)
	}()
	go func() {
		defer wg.Done()
		ds.Policies, policyWarns = loadDocuments(l.Root, policiesGlob, "*.yaml", "*.yml")
	}()
	go func() {
		defer wg.Done()
		ds.Logs, logWarns = loadDocuments(l.Root, logsGlob, "*.log")
	}()
	wg.Wait()

	// fixed merge order keeps warnings deterministic
	warns := make([]Warning, 0, len(benchWarns)+len(vulnWarns)+len(sbomWarns)+len(policyWarns)+len(logWarns))
	warns = append(warns, benchWarns...)
	warns = append(warns, vulnWarns...)
	warns = append(warns, sbomWarns...)
	warns = append(warns, policyWarns...)
	warns = append(warns, logWarns...)
	return ds, warns
}

func loadJSON[T any](root, rel string) (*T, []Warning) {
	path := filepath.Join(root, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("artifact missing: path=%s", path)
			return nil, nil
		}
		return nil, []Warning{warnf("load", WarnMalformedArtifact, "unreadable artifact %s: %v", rel, err)}
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		merr := &MalformedArtifactError{Artifact: rel, Err: err}
		return nil, []Warning{warnf("load", WarnMalformedArtifact, "%s", merr.Error())}
	}
	return &doc, nil
}

func loadDocuments(root, dir string, patterns ...string) ([]Document, []Warning) {
	base := filepath.Join(root, dir)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		log.Printf("artifact missing: path=%s", base)
		return nil, nil
	}

	var names []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(base, p))
		if err != nil {
			continue
		}
		names = append(names, matches...)
	}
	sort.Strings(names)

	var (
		docs  []Document
		warns []Warning
	)
	for _, name := range names {
		content, err := os.ReadFile(name)
		if err != nil {
			warns = append(warns, warnf("load", WarnMalformedArtifact,
				"unreadable artifact %s: %v", filepath.Base(name), err))
			continue
		}
		docs = append(docs, Document{Name: filepath.Base(name), Content: string(content)})
	}
	return docs, warns
}
